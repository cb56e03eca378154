// internal/services/variant_service_test.go
package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/openmall/mall-backend/internal/models"
)

type VariantServiceTestSuite struct {
	suite.Suite
	db         *gorm.DB
	products   *ProductService
	attributes *AttributeService
	service    *VariantService
	store      *models.Store
	color      *models.Attribute
	size       *models.Attribute
	leaf       *models.Product
}

func (suite *VariantServiceTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	suite.products = NewProductService(suite.db)
	suite.attributes = NewAttributeService(suite.db)
	suite.service = NewVariantService(suite.db, newTestConfig(), suite.products)

	owner := createTestUser(suite.T(), suite.db, models.UserTypeOwner)
	suite.store = createTestStore(suite.T(), suite.db, owner.ID, models.StoreStatusActive)

	var err error
	suite.color, err = suite.attributes.DefineAttribute(suite.store.ID, &DefineAttributeRequest{
		Name:            "Color",
		Type:            models.AttributeTypeColor,
		IsVariationAxis: true,
		Values: []AttributeValueRequest{
			{Value: "red", ColorCode: "#f00", DisplayOrder: 0},
			{Value: "blue", ColorCode: "#00f", DisplayOrder: 1},
		},
	})
	suite.Require().NoError(err)

	suite.size, err = suite.attributes.DefineAttribute(suite.store.ID, &DefineAttributeRequest{
		Name:            "Size",
		Type:            models.AttributeTypeChoice,
		IsVariationAxis: true,
		Values: []AttributeValueRequest{
			{Value: "s", DisplayOrder: 0},
			{Value: "m", DisplayOrder: 1},
		},
	})
	suite.Require().NoError(err)

	suite.leaf, err = suite.products.CreateProduct(suite.store.ID, &CreateProductRequest{
		Name:      "Tee",
		Slug:      "tee",
		BasePrice: decimal.NewFromInt(100000),
		IsLeaf:    true,
	})
	suite.Require().NoError(err)

	_, err = suite.attributes.BindAttributeToProduct(suite.store.ID, suite.leaf.ID, suite.color.ID, 0)
	suite.Require().NoError(err)
	_, err = suite.attributes.BindAttributeToProduct(suite.store.ID, suite.leaf.ID, suite.size.ID, 1)
	suite.Require().NoError(err)
}

func (suite *VariantServiceTestSuite) valueID(attr *models.Attribute, raw string) uuid.UUID {
	var value models.AttributeValue
	err := suite.db.Where("attribute_id = ? AND value = ?", attr.ID, raw).First(&value).Error
	suite.Require().NoError(err)
	return value.ID
}

func (suite *VariantServiceTestSuite) selection(color, size string) map[uuid.UUID]uuid.UUID {
	sel := make(map[uuid.UUID]uuid.UUID)
	if color != "" {
		sel[suite.color.ID] = suite.valueID(suite.color, color)
	}
	if size != "" {
		sel[suite.size.ID] = suite.valueID(suite.size, size)
	}
	return sel
}

func (suite *VariantServiceTestSuite) setStock(sku string, qty int) {
	err := suite.db.Model(&models.Variant{}).Where("sku = ?", sku).
		Update("stock_quantity", qty).Error
	suite.Require().NoError(err)
}

func (suite *VariantServiceTestSuite) TestGenerateCartesianProduct() {
	summary, err := suite.service.Generate(context.Background(), suite.store.ID, suite.leaf.ID)
	suite.Require().NoError(err)

	suite.Equal(4, summary.TotalCombinations)
	suite.Equal(4, summary.CreatedCount)
	suite.Equal(0, summary.Existing)

	// Axis order follows binding position, value order display order.
	skus := make([]string, 0, len(summary.Created))
	for _, v := range summary.Created {
		skus = append(skus, v.SKU)
		suite.Equal(0, v.StockQuantity)
		suite.True(v.IsActive)
		suite.True(v.PriceAdjustment.IsZero())
	}
	suite.Equal([]string{"tee-red-s", "tee-red-m", "tee-blue-s", "tee-blue-m"}, skus)
}

func (suite *VariantServiceTestSuite) TestGenerateIsIdempotent() {
	first, err := suite.service.Generate(context.Background(), suite.store.ID, suite.leaf.ID)
	suite.Require().NoError(err)

	second, err := suite.service.Generate(context.Background(), suite.store.ID, suite.leaf.ID)
	suite.Require().NoError(err)

	suite.Equal(0, second.CreatedCount)
	suite.Equal(4, second.Existing)

	// The originals are untouched.
	var variants []models.Variant
	suite.Require().NoError(suite.db.Where("product_id = ?", suite.leaf.ID).Order("sku").Find(&variants).Error)
	suite.Len(variants, 4)
	ids := make(map[uuid.UUID]bool)
	for _, v := range first.Created {
		ids[v.ID] = true
	}
	for _, v := range variants {
		suite.True(ids[v.ID])
	}
}

func (suite *VariantServiceTestSuite) TestGenerateFillsGapAfterNewValue() {
	first, err := suite.service.Generate(context.Background(), suite.store.ID, suite.leaf.ID)
	suite.Require().NoError(err)
	suite.Equal(4, first.CreatedCount)

	_, err = suite.attributes.AddAttributeValue(suite.store.ID, suite.size.ID, &AttributeValueRequest{
		Value: "l", DisplayOrder: 2,
	})
	suite.Require().NoError(err)

	second, err := suite.service.Generate(context.Background(), suite.store.ID, suite.leaf.ID)
	suite.Require().NoError(err)

	suite.Equal(6, second.TotalCombinations)
	suite.Equal(2, second.CreatedCount)
	suite.Equal(4, second.Existing)

	created := []string{second.Created[0].SKU, second.Created[1].SKU}
	suite.Equal([]string{"tee-red-l", "tee-blue-l"}, created)
}

func (suite *VariantServiceTestSuite) TestGenerateCombinationCeiling() {
	cfg := newTestConfig()
	cfg.Catalog.MaxCombinations = 3
	service := NewVariantService(suite.db, cfg, suite.products)

	_, err := service.Generate(context.Background(), suite.store.ID, suite.leaf.ID)
	suite.ErrorIs(err, ErrTooManyCombinations)

	// Nothing was written.
	var count int64
	suite.Require().NoError(suite.db.Model(&models.Variant{}).Where("product_id = ?", suite.leaf.ID).Count(&count).Error)
	suite.Zero(count)
}

func (suite *VariantServiceTestSuite) TestGenerateWithoutAxes() {
	bare, err := suite.products.CreateProduct(suite.store.ID, &CreateProductRequest{
		Name: "Plain", Slug: "plain", IsLeaf: true,
	})
	suite.Require().NoError(err)

	_, err = suite.service.Generate(context.Background(), suite.store.ID, bare.ID)
	suite.ErrorIs(err, ErrNoVariationAxes)
}

func (suite *VariantServiceTestSuite) TestGenerateRejectsInternalNode() {
	node, err := suite.products.CreateProduct(suite.store.ID, &CreateProductRequest{
		Name: "Apparel", Slug: "apparel", IsLeaf: false,
	})
	suite.Require().NoError(err)

	_, err = suite.service.Generate(context.Background(), suite.store.ID, node.ID)
	suite.ErrorIs(err, ErrNotLeafEligible)
}

func (suite *VariantServiceTestSuite) TestGenerateCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.service.Generate(ctx, suite.store.ID, suite.leaf.ID)
	suite.Error(err)

	var count int64
	suite.Require().NoError(suite.db.Model(&models.Variant{}).Where("product_id = ?", suite.leaf.ID).Count(&count).Error)
	suite.Zero(count)
}

func (suite *VariantServiceTestSuite) TestGenerateDisambiguatesSKUCollisions() {
	attr, err := suite.attributes.DefineAttribute(suite.store.ID, &DefineAttributeRequest{
		Name:            "Fit",
		Type:            models.AttributeTypeChoice,
		IsVariationAxis: true,
		Values: []AttributeValueRequest{
			{Value: "X-L", DisplayOrder: 0},
			{Value: "XL", DisplayOrder: 1},
		},
	})
	suite.Require().NoError(err)

	hoodie, err := suite.products.CreateProduct(suite.store.ID, &CreateProductRequest{
		Name: "Hoodie", Slug: "hoodie", IsLeaf: true,
	})
	suite.Require().NoError(err)
	_, err = suite.attributes.BindAttributeToProduct(suite.store.ID, hoodie.ID, attr.ID, 0)
	suite.Require().NoError(err)

	// Both raw values normalize to the same SKU token.
	summary, err := suite.service.Generate(context.Background(), suite.store.ID, hoodie.ID)
	suite.Require().NoError(err)
	suite.Equal(2, summary.CreatedCount)
	suite.Equal("hoodie-xl", summary.Created[0].SKU)
	suite.Equal("hoodie-xl-2", summary.Created[1].SKU)
}

func (suite *VariantServiceTestSuite) TestResolveExactSelection() {
	_, err := suite.service.Generate(context.Background(), suite.store.ID, suite.leaf.ID)
	suite.Require().NoError(err)
	suite.setStock("tee-red-s", 5)

	res, err := suite.service.Resolve(suite.store.ID, suite.leaf.ID, suite.selection("red", "s"))
	suite.Require().NoError(err)
	suite.Require().NotNil(res.Variant)
	suite.Equal("tee-red-s", res.Variant.SKU)
}

func (suite *VariantServiceTestSuite) TestResolveUnknownValue() {
	_, err := suite.service.Generate(context.Background(), suite.store.ID, suite.leaf.ID)
	suite.Require().NoError(err)

	sel := suite.selection("red", "")
	sel[suite.size.ID] = uuid.New()
	_, err = suite.service.Resolve(suite.store.ID, suite.leaf.ID, sel)
	suite.ErrorIs(err, ErrNoMatchingVariant)
}

func (suite *VariantServiceTestSuite) TestResolveInactiveVariant() {
	summary, err := suite.service.Generate(context.Background(), suite.store.ID, suite.leaf.ID)
	suite.Require().NoError(err)

	inactive := false
	_, err = suite.service.UpdateVariant(summary.Created[0].ID, &UpdateVariantRequest{IsActive: &inactive})
	suite.Require().NoError(err)

	// Customers cannot tell an inactive variant from a missing one.
	_, err = suite.service.Resolve(suite.store.ID, suite.leaf.ID, suite.selection("red", "s"))
	suite.ErrorIs(err, ErrNoMatchingVariant)

	// The owner lookup names the real state.
	_, err = suite.service.LookupVariant(suite.store.ID, suite.leaf.ID, suite.selection("red", "s"))
	suite.ErrorIs(err, ErrVariantInactive)
}

func (suite *VariantServiceTestSuite) TestLookupRequiresCompleteSelection() {
	_, err := suite.service.Generate(context.Background(), suite.store.ID, suite.leaf.ID)
	suite.Require().NoError(err)

	_, err = suite.service.LookupVariant(suite.store.ID, suite.leaf.ID, suite.selection("red", ""))
	suite.ErrorIs(err, ErrIncompleteSelection)
}

func (suite *VariantServiceTestSuite) TestResolvePartialAvailability() {
	_, err := suite.service.Generate(context.Background(), suite.store.ID, suite.leaf.ID)
	suite.Require().NoError(err)

	suite.setStock("tee-red-s", 5)
	suite.setStock("tee-blue-m", 3)

	// With red chosen only small remains in stock.
	res, err := suite.service.Resolve(suite.store.ID, suite.leaf.ID, suite.selection("red", ""))
	suite.Require().NoError(err)
	suite.Nil(res.Variant)
	suite.Equal([]uuid.UUID{suite.valueID(suite.size, "s")}, res.Available[suite.size.ID])

	// An empty selection reports reachable values on every axis.
	res, err = suite.service.Resolve(suite.store.ID, suite.leaf.ID, map[uuid.UUID]uuid.UUID{})
	suite.Require().NoError(err)
	suite.ElementsMatch(
		[]uuid.UUID{suite.valueID(suite.color, "red"), suite.valueID(suite.color, "blue")},
		res.Available[suite.color.ID])
	suite.ElementsMatch(
		[]uuid.UUID{suite.valueID(suite.size, "s"), suite.valueID(suite.size, "m")},
		res.Available[suite.size.ID])
}

func (suite *VariantServiceTestSuite) TestCreateSingleVariant() {
	variant, err := suite.service.CreateVariant(suite.store.ID, suite.leaf.ID, &CreateVariantRequest{
		Selection:       suite.selection("red", "s"),
		PriceAdjustment: decimal.NewFromInt(2000),
		StockQuantity:   3,
	})
	suite.Require().NoError(err)
	suite.Equal("tee-red-s", variant.SKU)
	suite.Equal(3, variant.StockQuantity)
	suite.True(variant.IsActive)

	// The combination is now taken.
	_, err = suite.service.CreateVariant(suite.store.ID, suite.leaf.ID, &CreateVariantRequest{
		SKU:       "tee-red-s-alt",
		Selection: suite.selection("red", "s"),
	})
	suite.ErrorIs(err, ErrDuplicateSelection)

	// Every axis must be covered.
	_, err = suite.service.CreateVariant(suite.store.ID, suite.leaf.ID, &CreateVariantRequest{
		Selection: suite.selection("red", ""),
	})
	suite.ErrorIs(err, ErrIncompleteSelection)

	// Values must belong to the axis.
	_, err = suite.service.CreateVariant(suite.store.ID, suite.leaf.ID, &CreateVariantRequest{
		Selection: map[uuid.UUID]uuid.UUID{
			suite.color.ID: suite.valueID(suite.size, "s"),
			suite.size.ID:  suite.valueID(suite.size, "s"),
		},
	})
	suite.ErrorIs(err, ErrInvalidValueSet)

	// Generation skips the hand-made combination instead of duplicating it.
	summary, err := suite.service.Generate(context.Background(), suite.store.ID, suite.leaf.ID)
	suite.Require().NoError(err)
	suite.Equal(3, summary.CreatedCount)
	suite.Equal(1, summary.Existing)
}

func (suite *VariantServiceTestSuite) TestResolveValueWithoutVariants() {
	_, err := suite.service.Generate(context.Background(), suite.store.ID, suite.leaf.ID)
	suite.Require().NoError(err)

	suite.setStock("tee-red-s", 5)
	suite.setStock("tee-red-m", 5)

	// Blue is a defined value but no blue variant survives. Choosing it
	// must come back as empty availability, not an error.
	err = suite.db.Unscoped().
		Where("product_id = ? AND sku IN ?", suite.leaf.ID, []string{"tee-blue-s", "tee-blue-m"}).
		Delete(&models.Variant{}).Error
	suite.Require().NoError(err)

	res, err := suite.service.Resolve(suite.store.ID, suite.leaf.ID, suite.selection("blue", ""))
	suite.Require().NoError(err)
	suite.Nil(res.Variant)
	suite.Empty(res.Available[suite.size.ID])
}

func (suite *VariantServiceTestSuite) TestFinalPriceDerivedOnRead() {
	_, err := suite.attributes.AddAttributeValue(suite.store.ID, suite.size.ID, &AttributeValueRequest{
		Value: "l", DisplayOrder: 2, ExtraCost: decimal.NewFromInt(10000),
	})
	suite.Require().NoError(err)

	summary, err := suite.service.Generate(context.Background(), suite.store.ID, suite.leaf.ID)
	suite.Require().NoError(err)

	var redL models.Variant
	suite.Require().NoError(suite.db.Where("sku = ?", "tee-red-l").First(&redL).Error)
	suite.Equal(6, summary.CreatedCount)

	adj := decimal.NewFromInt(5000)
	_, err = suite.service.UpdateVariant(redL.ID, &UpdateVariantRequest{PriceAdjustment: &adj})
	suite.Require().NoError(err)

	variant, err := suite.service.GetVariant(redL.ID)
	suite.Require().NoError(err)

	// base 100000 + adjustment 5000 + extra cost 10000
	price, err := suite.service.FinalPrice(variant)
	suite.Require().NoError(err)
	suite.True(price.Equal(decimal.NewFromInt(115000)), "got %s", price)

	// A base price edit shows up on the next read, no variant rewrite.
	newBase := decimal.NewFromInt(120000)
	_, err = suite.products.UpdateProduct(suite.store.ID, suite.leaf.ID, &UpdateProductRequest{BasePrice: &newBase})
	suite.Require().NoError(err)

	price, err = suite.service.FinalPrice(variant)
	suite.Require().NoError(err)
	suite.True(price.Equal(decimal.NewFromInt(135000)), "got %s", price)
}

func (suite *VariantServiceTestSuite) TestDecrementStock() {
	summary, err := suite.service.Generate(context.Background(), suite.store.ID, suite.leaf.ID)
	suite.Require().NoError(err)
	variant := summary.Created[0]
	suite.setStock(variant.SKU, 10)

	err = suite.service.DecrementStock(context.Background(), nil, variant.ID, 4)
	suite.NoError(err)

	err = suite.service.DecrementStock(context.Background(), nil, variant.ID, 7)
	suite.ErrorIs(err, ErrInsufficientStock)

	err = suite.service.DecrementStock(context.Background(), nil, uuid.New(), 1)
	suite.ErrorIs(err, ErrNotFound)

	updated, err := suite.service.GetVariant(variant.ID)
	suite.Require().NoError(err)
	suite.Equal(6, updated.StockQuantity)
}

func (suite *VariantServiceTestSuite) TestDecrementStockLastUnitRace() {
	summary, err := suite.service.Generate(context.Background(), suite.store.ID, suite.leaf.ID)
	suite.Require().NoError(err)
	variant := summary.Created[0]
	suite.setStock(variant.SKU, 1)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- suite.service.DecrementStock(context.Background(), nil, variant.ID, 1)
		}()
	}
	wg.Wait()
	close(errs)

	var failures int
	for err := range errs {
		if err != nil {
			suite.ErrorIs(err, ErrInsufficientStock)
			failures++
		}
	}
	suite.Equal(1, failures)

	updated, err := suite.service.GetVariant(variant.ID)
	suite.Require().NoError(err)
	suite.Equal(0, updated.StockQuantity)
}

func (suite *VariantServiceTestSuite) TestRestock() {
	summary, err := suite.service.Generate(context.Background(), suite.store.ID, suite.leaf.ID)
	suite.Require().NoError(err)
	variant := summary.Created[0]

	suite.NoError(suite.service.Restock(context.Background(), nil, variant.ID, 3))
	suite.ErrorIs(suite.service.Restock(context.Background(), nil, uuid.New(), 3), ErrNotFound)

	updated, err := suite.service.GetVariant(variant.ID)
	suite.Require().NoError(err)
	suite.Equal(3, updated.StockQuantity)
}

func (suite *VariantServiceTestSuite) TestSelectionKeyOrderIndependent() {
	a := suite.selection("red", "s")
	b := map[uuid.UUID]uuid.UUID{}
	b[suite.size.ID] = suite.valueID(suite.size, "s")
	b[suite.color.ID] = suite.valueID(suite.color, "red")

	suite.Equal(models.SelectionKeyFor(a), models.SelectionKeyFor(b))
}

func TestVariantServiceSuite(t *testing.T) {
	suite.Run(t, new(VariantServiceTestSuite))
}
