// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is a customer purchase against one store. Items snapshot the unit
// price at purchase time so later edits to base price, adjustments, or
// extra costs never rewrite history.
type Order struct {
	BaseModel
	StoreID      uuid.UUID       `json:"store_id" gorm:"type:uuid;not null;index"`
	CustomerID   uuid.UUID       `json:"customer_id" gorm:"type:uuid;not null;index"`
	OrderNumber  string          `json:"order_number" gorm:"uniqueIndex;size:32;not null"`
	Status       OrderStatus     `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	TotalAmount  decimal.Decimal `json:"total_amount" gorm:"type:decimal(14,2);not null;default:0"`
	ShippingInfo JSONB           `json:"shipping_info" gorm:"type:jsonb"`
	Notes        string          `json:"notes,omitempty" gorm:"type:text"`
	PaidAt       *time.Time      `json:"paid_at"`

	// Relationships
	Store    Store       `json:"store,omitempty" gorm:"foreignKey:StoreID"`
	Customer User        `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Items    []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;index"`
	VariantID uuid.UUID       `json:"variant_id" gorm:"type:uuid;not null;index"`
	SKU       string          `json:"sku" gorm:"size:150;not null"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(14,2);not null"`
	Quantity  int             `json:"quantity" gorm:"not null"`

	// Relationships
	Order   Order   `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	Variant Variant `json:"variant,omitempty" gorm:"foreignKey:VariantID"`
}
