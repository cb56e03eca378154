// internal/services/store_service_test.go
package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/openmall/mall-backend/internal/cache"
	"github.com/openmall/mall-backend/internal/models"
)

type StoreServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *StoreService
	owner   *models.User
	ctx     context.Context
}

func (suite *StoreServiceTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	suite.service = NewStoreService(suite.db, newTestConfig(), cache.NewMemoryDomainCache())
	suite.owner = createTestUser(suite.T(), suite.db, models.UserTypeOwner)
	suite.ctx = context.Background()
}

func (suite *StoreServiceTestSuite) activeStore() *models.Store {
	return createTestStore(suite.T(), suite.db, suite.owner.ID, models.StoreStatusActive)
}

func (suite *StoreServiceTestSuite) TestCreateStore() {
	store, err := suite.service.CreateStore(suite.owner.ID, &CreateStoreRequest{
		Name: "Acme Outfitters",
		Slug: "acme",
	})

	suite.Require().NoError(err)
	suite.Equal(models.StoreStatusPending, store.Status)
	suite.Equal("acme", store.Slug)

	// Customers cannot open stores.
	customer := createTestUser(suite.T(), suite.db, models.UserTypeCustomer)
	_, err = suite.service.CreateStore(customer.ID, &CreateStoreRequest{
		Name: "Nope", Slug: "nope",
	})
	suite.Error(err)
}

func (suite *StoreServiceTestSuite) TestBindFirstDomainBecomesPrimary() {
	store := suite.activeStore()

	first, err := suite.service.BindDomain(suite.ctx, store.ID, suite.owner.ID, &BindDomainRequest{
		Domain: "shop.acme.com",
	})
	suite.Require().NoError(err)
	suite.True(first.IsPrimary)

	second, err := suite.service.BindDomain(suite.ctx, store.ID, suite.owner.ID, &BindDomainRequest{
		Domain: "acme-outlet.com",
	})
	suite.Require().NoError(err)
	suite.False(second.IsPrimary)
}

func (suite *StoreServiceTestSuite) TestBindPrimaryDemotesPrevious() {
	store := suite.activeStore()

	_, err := suite.service.BindDomain(suite.ctx, store.ID, suite.owner.ID, &BindDomainRequest{
		Domain: "shop.acme.com",
	})
	suite.Require().NoError(err)

	_, err = suite.service.BindDomain(suite.ctx, store.ID, suite.owner.ID, &BindDomainRequest{
		Domain: "acme.com", IsPrimary: true,
	})
	suite.Require().NoError(err)

	var primaries []models.StoreDomain
	suite.Require().NoError(suite.db.Where("store_id = ? AND is_primary = ?", store.ID, true).Find(&primaries).Error)
	suite.Require().Len(primaries, 1)
	suite.Equal("acme.com", primaries[0].Domain)
}

func (suite *StoreServiceTestSuite) TestDomainTakenByOtherStore() {
	store := suite.activeStore()
	other := suite.activeStore()

	_, err := suite.service.BindDomain(suite.ctx, store.ID, suite.owner.ID, &BindDomainRequest{
		Domain: "shop.acme.com",
	})
	suite.Require().NoError(err)

	_, err = suite.service.BindDomain(suite.ctx, other.ID, suite.owner.ID, &BindDomainRequest{
		Domain: "shop.acme.com",
	})
	suite.ErrorIs(err, ErrDomainTaken)
}

func (suite *StoreServiceTestSuite) TestPlatformDomainReserved() {
	store := suite.activeStore()

	_, err := suite.service.BindDomain(suite.ctx, store.ID, suite.owner.ID, &BindDomainRequest{
		Domain: "openmall.example",
	})
	suite.ErrorIs(err, ErrDomainTaken)
}

func (suite *StoreServiceTestSuite) TestConcurrentBindSameDomain() {
	storeA := suite.activeStore()
	storeB := suite.activeStore()

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, store := range []*models.Store{storeA, storeB} {
		wg.Add(1)
		go func(st *models.Store) {
			defer wg.Done()
			_, err := suite.service.BindDomain(suite.ctx, st.ID, suite.owner.ID, &BindDomainRequest{
				Domain: "contested.example.com",
			})
			errs <- err
		}(store)
	}
	wg.Wait()
	close(errs)

	var wins, losses int
	for err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(suite.T(), err, ErrDomainTaken)
			losses++
		}
	}
	suite.Equal(1, wins)
	suite.Equal(1, losses)
}

func (suite *StoreServiceTestSuite) TestUnbindPrimaryBlockedWhileAliasesExist() {
	store := suite.activeStore()

	_, err := suite.service.BindDomain(suite.ctx, store.ID, suite.owner.ID, &BindDomainRequest{Domain: "acme.com"})
	suite.Require().NoError(err)
	_, err = suite.service.BindDomain(suite.ctx, store.ID, suite.owner.ID, &BindDomainRequest{Domain: "alias.acme.com"})
	suite.Require().NoError(err)

	err = suite.service.UnbindDomain(suite.ctx, store.ID, suite.owner.ID, "acme.com")
	suite.ErrorIs(err, ErrLastPrimaryDomain)

	// After promoting the alias the old primary can go.
	suite.Require().NoError(suite.service.SetPrimaryDomain(suite.ctx, store.ID, suite.owner.ID, "alias.acme.com"))
	suite.NoError(suite.service.UnbindDomain(suite.ctx, store.ID, suite.owner.ID, "acme.com"))

	// A store's only domain is removable even when primary.
	suite.NoError(suite.service.UnbindDomain(suite.ctx, store.ID, suite.owner.ID, "alias.acme.com"))
}

func (suite *StoreServiceTestSuite) TestOwnershipEnforced() {
	store := suite.activeStore()
	stranger := createTestUser(suite.T(), suite.db, models.UserTypeOwner)

	_, err := suite.service.BindDomain(suite.ctx, store.ID, stranger.ID, &BindDomainRequest{Domain: "acme.com"})
	suite.ErrorIs(err, ErrNotAuthorized)
}

func (suite *StoreServiceTestSuite) TestResolvePlatformDomain() {
	tc, err := suite.service.ResolveDomain(suite.ctx, "openmall.example")
	suite.Require().NoError(err)
	suite.Equal(ContextKindPlatform, tc.Kind)
	suite.Nil(tc.Store)

	// Ports and case do not matter.
	tc, err = suite.service.ResolveDomain(suite.ctx, "OpenMall.Example:8080")
	suite.Require().NoError(err)
	suite.Equal(ContextKindPlatform, tc.Kind)
}

func (suite *StoreServiceTestSuite) TestResolveStoreDomain() {
	store := suite.activeStore()
	_, err := suite.service.BindDomain(suite.ctx, store.ID, suite.owner.ID, &BindDomainRequest{Domain: "shop.acme.com"})
	suite.Require().NoError(err)

	tc, err := suite.service.ResolveDomain(suite.ctx, "shop.acme.com:443")
	suite.Require().NoError(err)
	suite.Equal(ContextKindStore, tc.Kind)
	suite.Require().NotNil(tc.Store)
	suite.Equal(store.ID, tc.Store.ID)

	// Second resolution is served from the cache and must agree.
	tc, err = suite.service.ResolveDomain(suite.ctx, "shop.acme.com")
	suite.Require().NoError(err)
	suite.Equal(store.ID, tc.Store.ID)
}

func (suite *StoreServiceTestSuite) TestResolveUnknownDomain() {
	_, err := suite.service.ResolveDomain(suite.ctx, "nobody.example.com")
	suite.ErrorIs(err, ErrUnknownDomain)

	_, err = suite.service.ResolveDomain(suite.ctx, "")
	suite.ErrorIs(err, ErrUnknownDomain)
}

func (suite *StoreServiceTestSuite) TestPendingStoreDoesNotResolve() {
	store := createTestStore(suite.T(), suite.db, suite.owner.ID, models.StoreStatusPending)
	_, err := suite.service.BindDomain(suite.ctx, store.ID, suite.owner.ID, &BindDomainRequest{Domain: "soon.acme.com"})
	suite.Require().NoError(err)

	_, err = suite.service.ResolveDomain(suite.ctx, "soon.acme.com")
	suite.ErrorIs(err, ErrUnknownDomain)
}

func (suite *StoreServiceTestSuite) TestDeactivationStopsResolution() {
	store := suite.activeStore()
	_, err := suite.service.BindDomain(suite.ctx, store.ID, suite.owner.ID, &BindDomainRequest{Domain: "shop.acme.com"})
	suite.Require().NoError(err)

	// Warm the cache.
	_, err = suite.service.ResolveDomain(suite.ctx, "shop.acme.com")
	suite.Require().NoError(err)

	_, err = suite.service.DeactivateStore(suite.ctx, store.ID)
	suite.Require().NoError(err)

	_, err = suite.service.ResolveDomain(suite.ctx, "shop.acme.com")
	suite.ErrorIs(err, ErrUnknownDomain)

	// Re-approval brings the domain back.
	_, err = suite.service.ApproveStore(suite.ctx, store.ID)
	suite.Require().NoError(err)

	tc, err := suite.service.ResolveDomain(suite.ctx, "shop.acme.com")
	suite.Require().NoError(err)
	suite.Equal(store.ID, tc.Store.ID)
}

func (suite *StoreServiceTestSuite) TestUnbindStopsResolution() {
	store := suite.activeStore()
	_, err := suite.service.BindDomain(suite.ctx, store.ID, suite.owner.ID, &BindDomainRequest{Domain: "shop.acme.com"})
	suite.Require().NoError(err)
	_, err = suite.service.ResolveDomain(suite.ctx, "shop.acme.com")
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.UnbindDomain(suite.ctx, store.ID, suite.owner.ID, "shop.acme.com"))

	_, err = suite.service.ResolveDomain(suite.ctx, "shop.acme.com")
	suite.ErrorIs(err, ErrUnknownDomain)
}

func TestStoreServiceSuite(t *testing.T) {
	suite.Run(t, new(StoreServiceTestSuite))
}

func TestNormalizeHost(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Shop.Acme.COM", "shop.acme.com"},
		{"shop.acme.com:8443", "shop.acme.com"},
		{"  shop.acme.com  ", "shop.acme.com"},
		{"localhost:3000", "localhost"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeHost(tc.in))
	}
}
