// internal/services/product_service.go
package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/openmall/mall-backend/internal/models"
	"github.com/openmall/mall-backend/internal/utils"
)

type ProductService struct {
	db *gorm.DB
}

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Slug        string          `json:"slug" validate:"required,slug,max=200"`
	Description string          `json:"description,omitempty"`
	BasePrice   decimal.Decimal `json:"base_price"`
	ParentID    *uuid.UUID      `json:"parent_id,omitempty"`
	IsLeaf      bool            `json:"is_leaf"`
	Images      []string        `json:"images,omitempty"`
	Videos      []string        `json:"videos,omitempty"`
}

type UpdateProductRequest struct {
	Name        *string               `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string               `json:"description,omitempty"`
	BasePrice   *decimal.Decimal      `json:"base_price,omitempty"`
	Images      []string              `json:"images,omitempty"`
	Videos      []string              `json:"videos,omitempty"`
	Status      *models.ProductStatus `json:"status,omitempty"`
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

// CreateProduct inserts a node into the store's product tree. The parent,
// when given, must be an internal node of the same store; leaves cannot
// grow children.
func (s *ProductService) CreateProduct(storeID uuid.UUID, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if req.BasePrice.IsNegative() {
		return nil, fmt.Errorf("validation failed: base price cannot be negative")
	}

	if req.ParentID != nil {
		var parent models.Product
		if err := s.db.Where("store_id = ?", storeID).First(&parent, *req.ParentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("parent product not found: %w", ErrNotFound)
			}
			return nil, fmt.Errorf("database error: %w", err)
		}
		if parent.IsLeaf {
			return nil, fmt.Errorf("leaf products cannot have children: %w", ErrNotLeafEligible)
		}
	}

	product := &models.Product{
		StoreID:     storeID,
		ParentID:    req.ParentID,
		Name:        req.Name,
		Slug:        strings.ToLower(req.Slug),
		Description: req.Description,
		BasePrice:   req.BasePrice,
		Images:      pq.StringArray(req.Images),
		Videos:      pq.StringArray(req.Videos),
		IsLeaf:      req.IsLeaf,
		Status:      models.ProductStatusDraft,
	}

	if err := s.db.Create(product).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("product slug already used in store: %w", ErrInvalidValueSet)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

func (s *ProductService) GetProduct(storeID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := s.db.Preload("Bindings.Attribute.Values", func(db *gorm.DB) *gorm.DB {
		return db.Order("display_order ASC, created_at ASC")
	}).Where("store_id = ?", storeID).First(&product, productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *ProductService) GetProductBySlug(storeID uuid.UUID, slug string) (*models.Product, error) {
	var product models.Product
	err := s.db.Where("store_id = ? AND slug = ?", storeID, strings.ToLower(slug)).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *ProductService) UpdateProduct(storeID, productID uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product, err := s.GetProduct(storeID, productID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.BasePrice != nil {
		if req.BasePrice.IsNegative() {
			return nil, fmt.Errorf("validation failed: base price cannot be negative")
		}
		updates["base_price"] = *req.BasePrice
	}
	if req.Images != nil {
		updates["images"] = pq.StringArray(req.Images)
	}
	if req.Videos != nil {
		updates["videos"] = pq.StringArray(req.Videos)
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}

	if len(updates) > 0 {
		if err := s.db.Model(product).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}

	return s.GetProduct(storeID, productID)
}

func (s *ProductService) DeleteProduct(storeID, productID uuid.UUID) error {
	product, err := s.GetProduct(storeID, productID)
	if err != nil {
		return err
	}

	var childCount int64
	if err := s.db.Model(&models.Product{}).Where("parent_id = ?", product.ID).Count(&childCount).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if childCount > 0 {
		return fmt.Errorf("product has children: %w", ErrNotLeafEligible)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.Variant{}).Error; err != nil {
			return fmt.Errorf("failed to delete variants: %w", err)
		}
		if err := tx.Delete(product).Error; err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
}

func (s *ProductService) ListProducts(storeID uuid.UUID, params utils.PaginationParams, status *models.ProductStatus) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{}).Where("store_id = ?", storeID)

	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "base_price", "view_count", "sales_count"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

// ListStorefrontProducts returns the customer-visible catalog of a store:
// active leaf nodes only.
func (s *ProductService) ListStorefrontProducts(storeID uuid.UUID, params utils.PaginationParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{}).
		Where("store_id = ? AND status = ? AND is_leaf = ?", storeID, models.ProductStatusActive, true)

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}
	if params.Category != "" {
		// Category filters by parent slug one level up.
		query = query.Where("parent_id IN (?)",
			s.db.Model(&models.Product{}).Select("id").
				Where("store_id = ? AND slug = ?", storeID, strings.ToLower(params.Category)))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "name", "base_price", "sales_count"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

func (s *ProductService) IncrementViewCount(productID uuid.UUID) {
	s.db.Model(&models.Product{}).Where("id = ?", productID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
}

// EffectiveBindings resolves the attribute set applicable at a product
// node: its own bindings plus everything inherited from ancestors. When
// the same attribute is bound at several levels the closest node wins.
// The result is ordered by binding position, ties broken by distance
// from the node, so generation walks axes in a stable order.
func (s *ProductService) EffectiveBindings(storeID, productID uuid.UUID) ([]models.ProductAttributeBinding, error) {
	type ranked struct {
		binding models.ProductAttributeBinding
		depth   int
	}

	product, err := s.GetProduct(storeID, productID)
	if err != nil {
		return nil, err
	}

	byAttribute := make(map[uuid.UUID]ranked)
	current := product
	depth := 0
	for {
		var bindings []models.ProductAttributeBinding
		err := s.db.Preload("Attribute.Values", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC, created_at ASC")
		}).Where("product_id = ?", current.ID).Find(&bindings).Error
		if err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		for _, b := range bindings {
			if existing, ok := byAttribute[b.AttributeID]; ok && existing.depth <= depth {
				continue
			}
			byAttribute[b.AttributeID] = ranked{binding: b, depth: depth}
		}

		if current.ParentID == nil {
			break
		}
		var parent models.Product
		if err := s.db.Where("store_id = ?", storeID).First(&parent, *current.ParentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			return nil, fmt.Errorf("database error: %w", err)
		}
		current = &parent
		depth++
	}

	out := make([]ranked, 0, len(byAttribute))
	for _, r := range byAttribute {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].binding.Position != out[j].binding.Position {
			return out[i].binding.Position < out[j].binding.Position
		}
		if out[i].depth != out[j].depth {
			return out[i].depth < out[j].depth
		}
		return out[i].binding.AttributeID.String() < out[j].binding.AttributeID.String()
	})

	result := make([]models.ProductAttributeBinding, len(out))
	for i, r := range out {
		result[i] = r.binding
	}
	return result, nil
}
