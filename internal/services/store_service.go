// internal/services/store_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/openmall/mall-backend/internal/cache"
	"github.com/openmall/mall-backend/internal/config"
	"github.com/openmall/mall-backend/internal/models"
	"github.com/openmall/mall-backend/internal/utils"
)

type StoreService struct {
	db          *gorm.DB
	cfg         *config.Config
	domainCache cache.DomainCache
}

type CreateStoreRequest struct {
	Name        string                 `json:"name" validate:"required,min=2,max=200"`
	Slug        string                 `json:"slug" validate:"required,slug,max=200"`
	Description string                 `json:"description,omitempty"`
	Settings    map[string]interface{} `json:"settings,omitempty"`
}

type UpdateStoreRequest struct {
	Name        string                 `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Description string                 `json:"description,omitempty"`
	Settings    map[string]interface{} `json:"settings,omitempty"`
}

type BindDomainRequest struct {
	Domain    string `json:"domain" validate:"required,domainname"`
	IsPrimary bool   `json:"is_primary"`
}

// ContextKind discriminates the two successful outcomes of domain
// resolution.
type ContextKind string

const (
	ContextKindPlatform ContextKind = "platform"
	ContextKindStore    ContextKind = "store"
)

// TenantContext is the result of resolving a request host. For the
// platform's own domain Store is nil and Kind is platform.
type TenantContext struct {
	Kind  ContextKind
	Store *models.Store
}

func NewStoreService(db *gorm.DB, cfg *config.Config, domainCache cache.DomainCache) *StoreService {
	return &StoreService{
		db:          db,
		cfg:         cfg,
		domainCache: domainCache,
	}
}

func (s *StoreService) CreateStore(ownerID uuid.UUID, req *CreateStoreRequest) (*models.Store, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// Verify owner exists and is active
	var owner models.User
	if err := s.db.First(&owner, ownerID).Error; err != nil {
		return nil, fmt.Errorf("owner not found: %w", err)
	}
	if owner.Status != models.UserStatusActive {
		return nil, errors.New("owner account is not active")
	}
	if owner.UserType != models.UserTypeOwner && owner.UserType != models.UserTypeAdmin {
		return nil, errors.New("only store owners can create stores")
	}

	store := &models.Store{
		OwnerID:     ownerID,
		Name:        req.Name,
		Slug:        strings.ToLower(req.Slug),
		Description: req.Description,
		Status:      models.StoreStatusPending,
		Settings:    models.JSONB(req.Settings),
	}

	if err := s.db.Create(store).Error; err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	return store, nil
}

func (s *StoreService) GetStore(id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := s.db.Preload("Domains").First(&store, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &store, nil
}

func (s *StoreService) UpdateStore(id, ownerID uuid.UUID, req *UpdateStoreRequest) (*models.Store, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	store, err := s.ownedStore(id, ownerID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Settings != nil {
		updates["settings"] = models.JSONB(req.Settings)
	}

	if len(updates) > 0 {
		if err := s.db.Model(store).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update store: %w", err)
		}
	}

	return store, nil
}

// ApproveStore flips a pending store to active (platform admin workflow).
func (s *StoreService) ApproveStore(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store, err := s.GetStore(id)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(store).Update("status", models.StoreStatusActive).Error; err != nil {
		return nil, fmt.Errorf("failed to approve store: %w", err)
	}
	store.Status = models.StoreStatusActive

	// A previously-deactivated store may still have cache entries from
	// before deactivation cleanup; drop them so resolution re-reads.
	s.invalidateStoreDomains(ctx, store)

	return store, nil
}

// DeactivateStore takes the store offline. All bound domains must stop
// resolving immediately, so cache invalidation happens before returning.
// Historical data is kept; nothing is deleted.
func (s *StoreService) DeactivateStore(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store, err := s.GetStore(id)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(store).Update("status", models.StoreStatusInactive).Error; err != nil {
		return nil, fmt.Errorf("failed to deactivate store: %w", err)
	}
	store.Status = models.StoreStatusInactive

	s.invalidateStoreDomains(ctx, store)

	return store, nil
}

// BindDomain attaches a domain to a store. Domains are unique across the
// whole platform; a store's first domain becomes primary regardless of
// the request. The binding and any primary-flag handover commit as one
// transaction so readers never observe a partial edit.
func (s *StoreService) BindDomain(ctx context.Context, storeID, ownerID uuid.UUID, req *BindDomainRequest) (*models.StoreDomain, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	store, err := s.ownedStore(storeID, ownerID)
	if err != nil {
		return nil, err
	}

	domain := NormalizeHost(req.Domain)
	if domain == "" {
		return nil, fmt.Errorf("validation failed: empty domain")
	}
	if domain == NormalizeHost(s.cfg.Platform.PrimaryDomain) {
		return nil, ErrDomainTaken
	}

	binding := &models.StoreDomain{
		StoreID: store.ID,
		Domain:  domain,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Global uniqueness: any existing binding, for any store, blocks.
		var existing models.StoreDomain
		if err := tx.Where("domain = ?", domain).First(&existing).Error; err == nil {
			return ErrDomainTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("database error: %w", err)
		}

		var domainCount int64
		if err := tx.Model(&models.StoreDomain{}).Where("store_id = ?", store.ID).Count(&domainCount).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		binding.IsPrimary = req.IsPrimary || domainCount == 0

		if binding.IsPrimary {
			// Demote the current primary inside the same transaction.
			if err := tx.Model(&models.StoreDomain{}).
				Where("store_id = ? AND is_primary = ?", store.ID, true).
				Update("is_primary", false).Error; err != nil {
				return fmt.Errorf("failed to demote primary domain: %w", err)
			}
		}

		if err := tx.Create(binding).Error; err != nil {
			// The unique index is the authority under concurrent binds.
			if isUniqueViolation(err) {
				return ErrDomainTaken
			}
			return fmt.Errorf("failed to bind domain: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Synchronous invalidation: the domain may have carried a stale
	// negative state in a resolver, and primary handover changed rows.
	s.domainCache.Invalidate(ctx, domain)

	return binding, nil
}

// UnbindDomain removes an alias. The primary domain can only be removed
// after another domain is promoted, so a store never ends up active with
// aliases but no primary.
func (s *StoreService) UnbindDomain(ctx context.Context, storeID, ownerID uuid.UUID, domain string) error {
	store, err := s.ownedStore(storeID, ownerID)
	if err != nil {
		return err
	}

	domain = NormalizeHost(domain)

	var binding models.StoreDomain
	if err := s.db.Where("store_id = ? AND domain = ?", store.ID, domain).First(&binding).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if binding.IsPrimary {
		var aliasCount int64
		if err := s.db.Model(&models.StoreDomain{}).
			Where("store_id = ? AND id <> ?", store.ID, binding.ID).
			Count(&aliasCount).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if aliasCount > 0 {
			return ErrLastPrimaryDomain
		}
	}

	if err := s.db.Unscoped().Delete(&binding).Error; err != nil {
		return fmt.Errorf("failed to unbind domain: %w", err)
	}

	s.domainCache.Invalidate(ctx, domain)
	return nil
}

// SetPrimaryDomain promotes an existing alias to primary in one
// transaction.
func (s *StoreService) SetPrimaryDomain(ctx context.Context, storeID, ownerID uuid.UUID, domain string) error {
	store, err := s.ownedStore(storeID, ownerID)
	if err != nil {
		return err
	}

	domain = NormalizeHost(domain)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var binding models.StoreDomain
		if err := tx.Where("store_id = ? AND domain = ?", store.ID, domain).First(&binding).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}
		if binding.IsPrimary {
			return nil
		}

		if err := tx.Model(&models.StoreDomain{}).
			Where("store_id = ? AND is_primary = ?", store.ID, true).
			Update("is_primary", false).Error; err != nil {
			return fmt.Errorf("failed to demote primary domain: %w", err)
		}
		if err := tx.Model(&binding).Update("is_primary", true).Error; err != nil {
			return fmt.Errorf("failed to promote domain: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.domainCache.Invalidate(ctx, domain)
	return nil
}

// ResolveDomain maps a request host to its tenant context. The reserved
// platform domain wins before any store lookup; anything else must match
// a bound domain of an active store exactly, or the request fails with
// ErrUnknownDomain. There is deliberately no default-store fallback.
func (s *StoreService) ResolveDomain(ctx context.Context, hostHeader string) (*TenantContext, error) {
	host := NormalizeHost(hostHeader)
	if host == "" {
		return nil, ErrUnknownDomain
	}

	if host == NormalizeHost(s.cfg.Platform.PrimaryDomain) {
		return &TenantContext{Kind: ContextKindPlatform}, nil
	}

	if entry, ok := s.domainCache.Get(ctx, host); ok {
		store, err := s.activeStore(entry.StoreID)
		if err == nil {
			return &TenantContext{Kind: ContextKindStore, Store: store}, nil
		}
		// The cached binding no longer points at an active store; drop
		// it and re-read from the source of truth.
		s.domainCache.Invalidate(ctx, host)
	}

	var binding models.StoreDomain
	err := s.db.Joins("JOIN stores ON stores.id = store_domains.store_id").
		Where("store_domains.domain = ? AND stores.status = ? AND stores.deleted_at IS NULL", host, models.StoreStatusActive).
		First(&binding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownDomain
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	store, err := s.activeStore(binding.StoreID)
	if err != nil {
		return nil, ErrUnknownDomain
	}

	s.domainCache.Set(ctx, host, &cache.Entry{StoreID: store.ID})

	return &TenantContext{Kind: ContextKindStore, Store: store}, nil
}

func (s *StoreService) ListStores(params utils.PaginationParams, status *models.StoreStatus) ([]models.Store, int64, error) {
	query := s.db.Model(&models.Store{}).Preload("Domains")

	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(slug) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count stores: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var stores []models.Store
	if err := query.Find(&stores).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch stores: %w", err)
	}

	return stores, total, nil
}

func (s *StoreService) GetOwnerStores(ownerID uuid.UUID) ([]models.Store, error) {
	var stores []models.Store
	if err := s.db.Preload("Domains").Where("owner_id = ?", ownerID).Find(&stores).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch stores: %w", err)
	}
	return stores, nil
}

// Helper methods

func (s *StoreService) ownedStore(storeID, ownerID uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := s.db.First(&store, storeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if store.OwnerID != ownerID {
		return nil, ErrNotAuthorized
	}
	return &store, nil
}

func (s *StoreService) activeStore(id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := s.db.Where("status = ?", models.StoreStatusActive).First(&store, id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (s *StoreService) invalidateStoreDomains(ctx context.Context, store *models.Store) {
	var bindings []models.StoreDomain
	if err := s.db.Where("store_id = ?", store.ID).Find(&bindings).Error; err != nil {
		logrus.WithError(err).WithField("store_id", store.ID).Error("Failed to load domains for cache invalidation")
		return
	}
	domains := make([]string, len(bindings))
	for i, b := range bindings {
		domains[i] = b.Domain
	}
	s.domainCache.Invalidate(ctx, domains...)
}

// NormalizeHost lowercases a host header and strips any port suffix.
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
