// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/openmall/mall-backend/internal/models"
	"github.com/openmall/mall-backend/internal/utils"
)

type OrderService struct {
	db       *gorm.DB
	variants *VariantService
}

type OrderItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type PlaceOrderRequest struct {
	Items        []OrderItemRequest     `json:"items" validate:"required,min=1,dive"`
	ShippingInfo map[string]interface{} `json:"shipping_info,omitempty"`
	Notes        string                 `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

func NewOrderService(db *gorm.DB, variants *VariantService) *OrderService {
	return &OrderService{db: db, variants: variants}
}

// PlaceOrder reserves stock and records the order in a single
// transaction. Every line item must decrement successfully or the whole
// order rolls back, so a sold-out variant never leaves a half-reserved
// order behind. Unit prices and SKUs are snapshotted at purchase time.
func (s *OrderService) PlaceOrder(ctx context.Context, storeID, customerID uuid.UUID, req *PlaceOrderRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(req.Items))

		for _, line := range req.Items {
			var variant models.Variant
			if err := tx.Preload("Product").First(&variant, line.VariantID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return fmt.Errorf("database error: %w", err)
			}
			if variant.Product.StoreID != storeID {
				return ErrNotFound
			}
			if !variant.IsActive || !variant.Product.IsSellable() {
				return ErrNoMatchingVariant
			}

			if err := s.variants.DecrementStock(ctx, tx, variant.ID, line.Quantity); err != nil {
				return err
			}

			unitPrice, err := s.variants.finalPrice(tx, &variant)
			if err != nil {
				return err
			}

			items = append(items, models.OrderItem{
				VariantID: variant.ID,
				SKU:       variant.SKU,
				UnitPrice: unitPrice,
				Quantity:  line.Quantity,
			})
			total = total.Add(unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))

			tx.Model(&models.Product{}).Where("id = ?", variant.ProductID).
				UpdateColumn("sales_count", gorm.Expr("sales_count + ?", line.Quantity))
		}

		order = &models.Order{
			StoreID:      storeID,
			CustomerID:   customerID,
			OrderNumber:  generateOrderNumber(),
			Status:       models.OrderStatusPending,
			TotalAmount:  total,
			ShippingInfo: models.JSONB(req.ShippingInfo),
			Notes:        req.Notes,
			Items:        items,
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// GetOrder loads an order visible to the given user: its customer, or
// the owner of the store it was placed in. Order history stays readable
// even after the store is deactivated.
func (s *OrderService) GetOrder(orderID, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Items").Preload("Store").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if order.CustomerID != userID && order.Store.OwnerID != userID {
		return nil, ErrNotAuthorized
	}
	return &order, nil
}

func (s *OrderService) ListCustomerOrders(customerID uuid.UUID, params utils.PaginationParams) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{}).Where("customer_id = ?", customerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	allowedSortFields := []string{"created_at", "total_amount", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var orders []models.Order
	if err := query.Preload("Items").Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}
	return orders, total, nil
}

func (s *OrderService) ListStoreOrders(storeID, ownerID uuid.UUID, params utils.PaginationParams, status *models.OrderStatus) ([]models.Order, int64, error) {
	var store models.Store
	if err := s.db.First(&store, storeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("database error: %w", err)
	}
	if store.OwnerID != ownerID {
		return nil, 0, ErrNotAuthorized
	}

	query := s.db.Model(&models.Order{}).Where("store_id = ?", storeID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	allowedSortFields := []string{"created_at", "total_amount", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var orders []models.Order
	if err := query.Preload("Items").Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}
	return orders, total, nil
}

// CancelOrder cancels a pending order and returns its stock.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.GetOrder(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPending {
		return nil, fmt.Errorf("only pending orders can be cancelled")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			if err := s.variants.Restock(ctx, tx, item.VariantID, item.Quantity); err != nil {
				return err
			}
			tx.Model(&models.Product{}).
				Where("id = (?)", tx.Model(&models.Variant{}).Select("product_id").Where("id = ?", item.VariantID)).
				UpdateColumn("sales_count", gorm.Expr("sales_count - ?", item.Quantity))
		}
		if err := tx.Model(order).Update("status", models.OrderStatusCancelled).Error; err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = models.OrderStatusCancelled
	return order, nil
}

// UpdateOrderStatus moves an order along the fulfillment path. Only the
// store owner may do this, and only forward.
func (s *OrderService) UpdateOrderStatus(orderID, ownerID uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Store").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if order.Store.OwnerID != ownerID {
		return nil, ErrNotAuthorized
	}

	if !validOrderTransition(order.Status, status) {
		return nil, fmt.Errorf("invalid status transition %s -> %s", order.Status, status)
	}

	updates := map[string]interface{}{"status": status}
	if status == models.OrderStatusPaid {
		now := time.Now()
		updates["paid_at"] = &now
	}
	if err := s.db.Model(&order).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	order.Status = status
	return &order, nil
}

func validOrderTransition(from, to models.OrderStatus) bool {
	switch from {
	case models.OrderStatusPending:
		return to == models.OrderStatusPaid || to == models.OrderStatusCancelled
	case models.OrderStatusPaid:
		return to == models.OrderStatusShipped || to == models.OrderStatusCancelled
	case models.OrderStatusShipped:
		return to == models.OrderStatusDelivered
	default:
		return false
	}
}

func generateOrderNumber() string {
	stamp := time.Now().UTC().Format("20060102")
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:10]
	return fmt.Sprintf("ORD-%s-%s", stamp, suffix)
}
