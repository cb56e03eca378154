// internal/services/order_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/openmall/mall-backend/internal/models"
)

type OrderServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	variants *VariantService
	service  *OrderService
	store    *models.Store
	owner    *models.User
	customer *models.User
	sizeS     *models.Variant
	sizeM     *models.Variant
	ctx      context.Context
}

func (suite *OrderServiceTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	suite.ctx = context.Background()

	products := NewProductService(suite.db)
	attributes := NewAttributeService(suite.db)
	suite.variants = NewVariantService(suite.db, newTestConfig(), products)
	suite.service = NewOrderService(suite.db, suite.variants)

	suite.owner = createTestUser(suite.T(), suite.db, models.UserTypeOwner)
	suite.customer = createTestUser(suite.T(), suite.db, models.UserTypeCustomer)
	suite.store = createTestStore(suite.T(), suite.db, suite.owner.ID, models.StoreStatusActive)

	size, err := attributes.DefineAttribute(suite.store.ID, &DefineAttributeRequest{
		Name:            "Size",
		Type:            models.AttributeTypeChoice,
		IsVariationAxis: true,
		Values: []AttributeValueRequest{
			{Value: "s", DisplayOrder: 0},
			{Value: "m", DisplayOrder: 1, ExtraCost: decimal.NewFromInt(500)},
		},
	})
	suite.Require().NoError(err)

	leaf, err := products.CreateProduct(suite.store.ID, &CreateProductRequest{
		Name:      "Tee",
		Slug:      "tee",
		BasePrice: decimal.NewFromInt(10000),
		IsLeaf:    true,
	})
	suite.Require().NoError(err)
	_, err = attributes.BindAttributeToProduct(suite.store.ID, leaf.ID, size.ID, 0)
	suite.Require().NoError(err)

	active := models.ProductStatusActive
	_, err = products.UpdateProduct(suite.store.ID, leaf.ID, &UpdateProductRequest{Status: &active})
	suite.Require().NoError(err)

	summary, err := suite.variants.Generate(suite.ctx, suite.store.ID, leaf.ID)
	suite.Require().NoError(err)
	suite.Require().Equal(2, summary.CreatedCount)

	suite.sizeS = &summary.Created[0]
	suite.sizeM = &summary.Created[1]

	stock := 10
	_, err = suite.variants.UpdateVariant(suite.sizeS.ID, &UpdateVariantRequest{StockQuantity: &stock})
	suite.Require().NoError(err)
	_, err = suite.variants.UpdateVariant(suite.sizeM.ID, &UpdateVariantRequest{StockQuantity: &stock})
	suite.Require().NoError(err)
}

func (suite *OrderServiceTestSuite) TestPlaceOrder() {
	order, err := suite.service.PlaceOrder(suite.ctx, suite.store.ID, suite.customer.ID, &PlaceOrderRequest{
		Items: []OrderItemRequest{
			{VariantID: suite.sizeS.ID, Quantity: 2},
			{VariantID: suite.sizeM.ID, Quantity: 1},
		},
	})
	suite.Require().NoError(err)

	suite.Equal(models.OrderStatusPending, order.Status)
	suite.Len(order.Items, 2)
	// 2 * 10000 + 1 * (10000 + 500 extra for m)
	suite.True(order.TotalAmount.Equal(decimal.NewFromInt(30500)), "got %s", order.TotalAmount)
	suite.Contains(order.OrderNumber, "ORD-")

	small, err := suite.variants.GetVariant(suite.sizeS.ID)
	suite.Require().NoError(err)
	suite.Equal(8, small.StockQuantity)
}

func (suite *OrderServiceTestSuite) TestPlaceOrderAllOrNothing() {
	one := 1
	_, err := suite.variants.UpdateVariant(suite.sizeM.ID, &UpdateVariantRequest{StockQuantity: &one})
	suite.Require().NoError(err)

	_, err = suite.service.PlaceOrder(suite.ctx, suite.store.ID, suite.customer.ID, &PlaceOrderRequest{
		Items: []OrderItemRequest{
			{VariantID: suite.sizeS.ID, Quantity: 3},
			{VariantID: suite.sizeM.ID, Quantity: 5},
		},
	})
	suite.ErrorIs(err, ErrInsufficientStock)

	// The first line's decrement rolled back with the rest.
	small, err := suite.variants.GetVariant(suite.sizeS.ID)
	suite.Require().NoError(err)
	suite.Equal(10, small.StockQuantity)

	var count int64
	suite.Require().NoError(suite.db.Model(&models.Order{}).Count(&count).Error)
	suite.Zero(count)
}

func (suite *OrderServiceTestSuite) TestPlaceOrderIgnoresForeignStore() {
	otherOwner := createTestUser(suite.T(), suite.db, models.UserTypeOwner)
	otherStore := createTestStore(suite.T(), suite.db, otherOwner.ID, models.StoreStatusActive)

	_, err := suite.service.PlaceOrder(suite.ctx, otherStore.ID, suite.customer.ID, &PlaceOrderRequest{
		Items: []OrderItemRequest{{VariantID: suite.sizeS.ID, Quantity: 1}},
	})
	suite.ErrorIs(err, ErrNotFound)
}

func (suite *OrderServiceTestSuite) TestPlaceOrderInactiveVariant() {
	inactive := false
	_, err := suite.variants.UpdateVariant(suite.sizeS.ID, &UpdateVariantRequest{IsActive: &inactive})
	suite.Require().NoError(err)

	_, err = suite.service.PlaceOrder(suite.ctx, suite.store.ID, suite.customer.ID, &PlaceOrderRequest{
		Items: []OrderItemRequest{{VariantID: suite.sizeS.ID, Quantity: 1}},
	})
	suite.ErrorIs(err, ErrNoMatchingVariant)
}

func (suite *OrderServiceTestSuite) TestPriceSnapshotSurvivesEdits() {
	order, err := suite.service.PlaceOrder(suite.ctx, suite.store.ID, suite.customer.ID, &PlaceOrderRequest{
		Items: []OrderItemRequest{{VariantID: suite.sizeS.ID, Quantity: 1}},
	})
	suite.Require().NoError(err)

	// Raise the adjustment after the fact; the order keeps its price.
	bump := decimal.NewFromInt(9999)
	_, err = suite.variants.UpdateVariant(suite.sizeS.ID, &UpdateVariantRequest{PriceAdjustment: &bump})
	suite.Require().NoError(err)

	reloaded, err := suite.service.GetOrder(order.ID, suite.customer.ID)
	suite.Require().NoError(err)
	suite.Require().Len(reloaded.Items, 1)
	suite.True(reloaded.Items[0].UnitPrice.Equal(decimal.NewFromInt(10000)))
}

func (suite *OrderServiceTestSuite) TestCancelRestoresStock() {
	order, err := suite.service.PlaceOrder(suite.ctx, suite.store.ID, suite.customer.ID, &PlaceOrderRequest{
		Items: []OrderItemRequest{{VariantID: suite.sizeS.ID, Quantity: 4}},
	})
	suite.Require().NoError(err)

	cancelled, err := suite.service.CancelOrder(suite.ctx, order.ID, suite.customer.ID)
	suite.Require().NoError(err)
	suite.Equal(models.OrderStatusCancelled, cancelled.Status)

	small, err := suite.variants.GetVariant(suite.sizeS.ID)
	suite.Require().NoError(err)
	suite.Equal(10, small.StockQuantity)

	// Cancelled orders stay cancelled.
	_, err = suite.service.CancelOrder(suite.ctx, order.ID, suite.customer.ID)
	suite.Error(err)
}

func (suite *OrderServiceTestSuite) TestOrderVisibility() {
	order, err := suite.service.PlaceOrder(suite.ctx, suite.store.ID, suite.customer.ID, &PlaceOrderRequest{
		Items: []OrderItemRequest{{VariantID: suite.sizeS.ID, Quantity: 1}},
	})
	suite.Require().NoError(err)

	_, err = suite.service.GetOrder(order.ID, suite.customer.ID)
	suite.NoError(err)
	_, err = suite.service.GetOrder(order.ID, suite.owner.ID)
	suite.NoError(err)

	stranger := createTestUser(suite.T(), suite.db, models.UserTypeCustomer)
	_, err = suite.service.GetOrder(order.ID, stranger.ID)
	suite.ErrorIs(err, ErrNotAuthorized)
}

func (suite *OrderServiceTestSuite) TestStatusTransitions() {
	order, err := suite.service.PlaceOrder(suite.ctx, suite.store.ID, suite.customer.ID, &PlaceOrderRequest{
		Items: []OrderItemRequest{{VariantID: suite.sizeS.ID, Quantity: 1}},
	})
	suite.Require().NoError(err)

	// Only the store owner moves orders along.
	_, err = suite.service.UpdateOrderStatus(order.ID, suite.customer.ID, models.OrderStatusPaid)
	suite.ErrorIs(err, ErrNotAuthorized)

	_, err = suite.service.UpdateOrderStatus(order.ID, suite.owner.ID, models.OrderStatusPaid)
	suite.Require().NoError(err)

	reloaded, err := suite.service.GetOrder(order.ID, suite.owner.ID)
	suite.Require().NoError(err)
	suite.Equal(models.OrderStatusPaid, reloaded.Status)
	suite.NotNil(reloaded.PaidAt)

	// Skipping ahead is rejected.
	_, err = suite.service.UpdateOrderStatus(order.ID, suite.owner.ID, models.OrderStatusDelivered)
	suite.Error(err)

	_, err = suite.service.UpdateOrderStatus(order.ID, suite.owner.ID, models.OrderStatusShipped)
	suite.Require().NoError(err)
	_, err = suite.service.UpdateOrderStatus(order.ID, suite.owner.ID, models.OrderStatusDelivered)
	suite.NoError(err)

	// Delivered is terminal.
	_, err = suite.service.UpdateOrderStatus(order.ID, suite.owner.ID, models.OrderStatusCancelled)
	suite.Error(err)
}

func TestOrderServiceSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}
