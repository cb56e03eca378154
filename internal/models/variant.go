// internal/models/variant.go
package models

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Variant is one sellable combination of attribute values under a leaf
// product. The selection set, not the SKU, is the variant's identity:
// (product_id, selection_key) is unique, and SKU is unique platform-wide.
type Variant struct {
	BaseModel
	ProductID       uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_variants_product_selection"`
	SKU             string          `json:"sku" gorm:"uniqueIndex;size:150;not null"`
	Selection       JSONB           `json:"selection" gorm:"type:jsonb;not null"`
	SelectionKey    string          `json:"-" gorm:"size:1200;not null;uniqueIndex:idx_variants_product_selection"`
	PriceAdjustment decimal.Decimal `json:"price_adjustment" gorm:"type:decimal(14,2);not null;default:0"`
	StockQuantity   int             `json:"stock_quantity" gorm:"not null;default:0;check:stock_quantity >= 0"`
	IsActive        bool            `json:"is_active" gorm:"default:true;index"`

	// Relationships
	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (v *Variant) InStock() bool {
	return v.StockQuantity > 0
}

// SelectionMap decodes the stored selection into attributeID -> valueID.
// Entries that do not parse as UUIDs are skipped.
func (v *Variant) SelectionMap() map[uuid.UUID]uuid.UUID {
	out := make(map[uuid.UUID]uuid.UUID, len(v.Selection))
	for attr, val := range v.Selection {
		attrID, err := uuid.Parse(attr)
		if err != nil {
			continue
		}
		valStr, ok := val.(string)
		if !ok {
			continue
		}
		valID, err := uuid.Parse(valStr)
		if err != nil {
			continue
		}
		out[attrID] = valID
	}
	return out
}

// SelectionJSONB encodes a selection for the Selection column.
func SelectionJSONB(selection map[uuid.UUID]uuid.UUID) JSONB {
	out := make(JSONB, len(selection))
	for attrID, valID := range selection {
		out[attrID.String()] = valID.String()
	}
	return out
}

// SelectionKeyFor computes the canonical form of a selection set: pairs
// sorted by attribute ID so that insertion order never produces two keys
// for the same set.
func SelectionKeyFor(selection map[uuid.UUID]uuid.UUID) string {
	pairs := make([]string, 0, len(selection))
	for attrID, valID := range selection {
		pairs = append(pairs, attrID.String()+"="+valID.String())
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ";")
}
