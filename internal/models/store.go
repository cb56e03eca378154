// internal/models/store.go
package models

import (
	"github.com/google/uuid"
)

// Store is the tenant boundary. Every product, attribute, and order hangs
// off exactly one store, and every storefront request is scoped to one
// store via domain resolution.
type Store struct {
	BaseModel
	OwnerID     uuid.UUID   `json:"owner_id" gorm:"type:uuid;not null;index"`
	Name        string      `json:"name" gorm:"size:200;not null"`
	Slug        string      `json:"slug" gorm:"uniqueIndex;size:200;not null"`
	Description string      `json:"description" gorm:"type:text"`
	Status      StoreStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	Settings    JSONB       `json:"settings" gorm:"type:jsonb"`

	// Relationships
	Owner      User          `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Domains    []StoreDomain `json:"domains,omitempty" gorm:"foreignKey:StoreID"`
	Attributes []Attribute   `json:"attributes,omitempty" gorm:"foreignKey:StoreID"`
	Products   []Product     `json:"products,omitempty" gorm:"foreignKey:StoreID"`
}

func (s *Store) IsActive() bool {
	return s.Status == StoreStatusActive
}

// PrimaryDomain returns the store's primary domain, or "" when none is
// loaded or bound.
func (s *Store) PrimaryDomain() string {
	for _, d := range s.Domains {
		if d.IsPrimary {
			return d.Domain
		}
	}
	return ""
}

// StoreDomain binds one host name to a store. Domain is unique across the
// whole platform, not per store: a host resolves to at most one tenant.
type StoreDomain struct {
	BaseModel
	StoreID   uuid.UUID `json:"store_id" gorm:"type:uuid;not null;index"`
	Domain    string    `json:"domain" gorm:"uniqueIndex;size:255;not null"`
	IsPrimary bool      `json:"is_primary" gorm:"default:false"`

	// Relationships
	Store Store `json:"store,omitempty" gorm:"foreignKey:StoreID"`
}
