// internal/middleware/tenant_test.go
package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openmall/mall-backend/internal/cache"
	"github.com/openmall/mall-backend/internal/config"
	"github.com/openmall/mall-backend/internal/models"
	"github.com/openmall/mall-backend/internal/services"
)

func setupTenantRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Store{}, &models.StoreDomain{}))

	cfg := &config.Config{
		Platform: config.PlatformConfig{PrimaryDomain: "openmall.example"},
	}
	stores := services.NewStoreService(db, cfg, cache.NewMemoryDomainCache())

	r := gin.New()
	shop := r.Group("/shop")
	shop.Use(TenantResolver(stores), StoreContextRequired())
	shop.GET("", func(c *gin.Context) {
		store, _ := GetStoreFromContext(c)
		c.JSON(http.StatusOK, gin.H{"slug": store.Slug})
	})

	return r, db
}

func bindStoreDomain(t *testing.T, db *gorm.DB, domain string) *models.Store {
	t.Helper()

	owner := &models.User{
		Username: "owner-" + domain,
		Email:    "owner@" + domain,
		UserType: models.UserTypeOwner,
		Status:   models.UserStatusActive,
	}
	require.NoError(t, owner.SetPassword("TestPass123!"))
	require.NoError(t, db.Create(owner).Error)

	store := &models.Store{
		OwnerID: owner.ID,
		Name:    "Shop at " + domain,
		Slug:    "shop-" + domain,
		Status:  models.StoreStatusActive,
	}
	require.NoError(t, db.Create(store).Error)
	require.NoError(t, db.Create(&models.StoreDomain{
		StoreID:   store.ID,
		Domain:    domain,
		IsPrimary: true,
	}).Error)
	return store
}

func TestTenantResolverRoutesByHost(t *testing.T) {
	r, db := setupTenantRouter(t)
	store := bindStoreDomain(t, db, "shop.acme.com")

	req := httptest.NewRequest("GET", "/shop", nil)
	req.Host = "shop.acme.com:443"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, store.Slug, body["slug"])
}

func TestTenantResolverUnknownDomain(t *testing.T) {
	r, _ := setupTenantRouter(t)

	req := httptest.NewRequest("GET", "/shop", nil)
	req.Host = "nobody.example.com"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStoreContextRequiredRejectsPlatformDomain(t *testing.T) {
	r, _ := setupTenantRouter(t)

	// The platform domain resolves, but not to a store.
	req := httptest.NewRequest("GET", "/shop", nil)
	req.Host = "openmall.example"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTenantIsolationBetweenStores(t *testing.T) {
	r, db := setupTenantRouter(t)
	first := bindStoreDomain(t, db, "first.example.com")
	second := bindStoreDomain(t, db, "second.example.com")

	for host, want := range map[string]string{
		"first.example.com":  first.Slug,
		"second.example.com": second.Slug,
	} {
		req := httptest.NewRequest("GET", "/shop", nil)
		req.Host = host
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, want, body["slug"], host)
	}
}
