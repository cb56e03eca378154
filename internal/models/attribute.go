// internal/models/attribute.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Attribute is a store-scoped product dimension (Color, Size, Material).
// Attributes flagged as variation axes drive variant generation; the rest
// are purely descriptive.
type Attribute struct {
	BaseModel
	StoreID         uuid.UUID     `json:"store_id" gorm:"type:uuid;not null;uniqueIndex:idx_attributes_store_name"`
	Name            string        `json:"name" gorm:"size:100;not null;uniqueIndex:idx_attributes_store_name"`
	Type            AttributeType `json:"type" gorm:"type:varchar(20);not null"`
	IsVariationAxis bool          `json:"is_variation_axis" gorm:"default:false"`
	IsRequired      bool          `json:"is_required" gorm:"default:false"`
	DisplayOrder    int           `json:"display_order" gorm:"default:0"`
	IsActive        bool          `json:"is_active" gorm:"default:true"`

	// Relationships
	Store  Store            `json:"store,omitempty" gorm:"foreignKey:StoreID"`
	Values []AttributeValue `json:"values,omitempty" gorm:"foreignKey:AttributeID"`
}

// AttributeValue is one permitted value of a choice/color attribute.
// Value is the raw machine value ("red"), Label the display form ("Red"),
// ColorCode a hex triplet for color attributes, and ExtraCost an additive
// price delta applied to variants selecting this value.
type AttributeValue struct {
	BaseModel
	AttributeID  uuid.UUID       `json:"attribute_id" gorm:"type:uuid;not null;uniqueIndex:idx_attribute_values_attr_value"`
	Value        string          `json:"value" gorm:"size:100;not null;uniqueIndex:idx_attribute_values_attr_value"`
	Label        string          `json:"label" gorm:"size:100"`
	ColorCode    string          `json:"color_code,omitempty" gorm:"size:7"`
	ExtraCost    decimal.Decimal `json:"extra_cost" gorm:"type:decimal(12,2);default:0"`
	DisplayOrder int             `json:"display_order" gorm:"default:0"`
	IsActive     bool            `json:"is_active" gorm:"default:true"`

	// Relationships
	Attribute Attribute `json:"attribute,omitempty" gorm:"foreignKey:AttributeID"`
}

// DisplayLabel falls back to the raw value when no label was set.
func (v *AttributeValue) DisplayLabel() string {
	if v.Label != "" {
		return v.Label
	}
	return v.Value
}
