// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a node of the per-store category/attribute tree. Internal
// nodes exist only to narrow the attribute set for their descendants;
// only leaf nodes are sellable and may own variants.
type Product struct {
	BaseModel
	StoreID     uuid.UUID       `json:"store_id" gorm:"type:uuid;not null;uniqueIndex:idx_products_store_slug"`
	ParentID    *uuid.UUID      `json:"parent_id" gorm:"type:uuid;index"`
	Name        string          `json:"name" gorm:"size:200;not null"`
	Slug        string          `json:"slug" gorm:"size:200;not null;uniqueIndex:idx_products_store_slug"`
	Description string          `json:"description" gorm:"type:text"`
	BasePrice   decimal.Decimal `json:"base_price" gorm:"type:decimal(14,2);not null;default:0"`
	Images      pq.StringArray  `json:"images" gorm:"type:text[]"`
	Videos      pq.StringArray  `json:"videos" gorm:"type:text[]"`
	// No column default here: gorm would substitute it for an explicit
	// false on insert, silently turning internal nodes into leaves.
	IsLeaf     bool          `json:"is_leaf"`
	Status     ProductStatus `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	ViewCount  int64         `json:"view_count" gorm:"default:0"`
	SalesCount int64         `json:"sales_count" gorm:"default:0"`

	// Relationships
	Store    Store                     `json:"store,omitempty" gorm:"foreignKey:StoreID"`
	Parent   *Product                  `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Children []Product                 `json:"children,omitempty" gorm:"foreignKey:ParentID"`
	Bindings []ProductAttributeBinding `json:"bindings,omitempty" gorm:"foreignKey:ProductID"`
	Variants []Variant                 `json:"variants,omitempty" gorm:"foreignKey:ProductID"`
}

func (p *Product) IsSellable() bool {
	return p.IsLeaf && p.Status == ProductStatusActive
}

// ProductAttributeBinding attaches an attribute definition to a product
// node. Position fixes the axis order used by variant generation, so SKU
// suffixes stay reproducible across re-generation runs.
type ProductAttributeBinding struct {
	BaseModel
	ProductID   uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_bindings_product_attr"`
	AttributeID uuid.UUID `json:"attribute_id" gorm:"type:uuid;not null;uniqueIndex:idx_bindings_product_attr"`
	Position    int       `json:"position" gorm:"default:0"`

	// Relationships
	Product   Product   `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Attribute Attribute `json:"attribute,omitempty" gorm:"foreignKey:AttributeID"`
}
