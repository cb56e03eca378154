// internal/services/attribute_service.go
package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/openmall/mall-backend/internal/models"
	"github.com/openmall/mall-backend/internal/utils"
)

type AttributeService struct {
	db *gorm.DB
}

type DefineAttributeRequest struct {
	Name            string                  `json:"name" validate:"required,min=1,max=100"`
	Type            models.AttributeType    `json:"type" validate:"required"`
	IsVariationAxis bool                    `json:"is_variation_axis"`
	IsRequired      bool                    `json:"is_required"`
	DisplayOrder    int                     `json:"display_order"`
	Values          []AttributeValueRequest `json:"values,omitempty" validate:"omitempty,dive"`
}

type UpdateAttributeRequest struct {
	Name            *string               `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Type            *models.AttributeType `json:"type,omitempty"`
	IsVariationAxis *bool                 `json:"is_variation_axis,omitempty"`
	IsRequired      *bool                 `json:"is_required,omitempty"`
	DisplayOrder    *int                  `json:"display_order,omitempty"`
	IsActive        *bool                 `json:"is_active,omitempty"`
}

type AttributeValueRequest struct {
	Value        string          `json:"value" validate:"required,min=1,max=100"`
	Label        string          `json:"label,omitempty" validate:"omitempty,max=150"`
	ColorCode    string          `json:"color_code,omitempty"`
	ExtraCost    decimal.Decimal `json:"extra_cost"`
	DisplayOrder int             `json:"display_order"`
}

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

func NewAttributeService(db *gorm.DB) *AttributeService {
	return &AttributeService{db: db}
}

// DefineAttribute creates an attribute within a store's namespace.
// Choice and color attributes must ship with at least one value; the
// other types carry free-form values on variants and reject an
// enumerated value set.
func (s *AttributeService) DefineAttribute(storeID uuid.UUID, req *DefineAttributeRequest) (*models.Attribute, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown attribute type %q", ErrInvalidValueSet, req.Type)
	}

	if req.Type.RequiresValues() && len(req.Values) == 0 {
		return nil, fmt.Errorf("%w: %s attributes need at least one value", ErrInvalidValueSet, req.Type)
	}
	if !req.Type.RequiresValues() && len(req.Values) > 0 {
		return nil, fmt.Errorf("%w: %s attributes do not take enumerated values", ErrInvalidValueSet, req.Type)
	}

	values, err := buildValues(req.Type, req.Values)
	if err != nil {
		return nil, err
	}

	attribute := &models.Attribute{
		StoreID:         storeID,
		Name:            strings.TrimSpace(req.Name),
		Type:            req.Type,
		IsVariationAxis: req.IsVariationAxis,
		IsRequired:      req.IsRequired,
		DisplayOrder:    req.DisplayOrder,
		IsActive:        true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Attribute{}).
			Where("store_id = ? AND name = ?", storeID, attribute.Name).
			Count(&count).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if count > 0 {
			return ErrDuplicateAttributeName
		}

		if err := tx.Create(attribute).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateAttributeName
			}
			return fmt.Errorf("failed to create attribute: %w", err)
		}

		for i := range values {
			values[i].AttributeID = attribute.ID
		}
		if len(values) > 0 {
			if err := tx.Create(&values).Error; err != nil {
				if isUniqueViolation(err) {
					return ErrDuplicateAttributeValue
				}
				return fmt.Errorf("failed to create attribute values: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	attribute.Values = values
	return attribute, nil
}

func (s *AttributeService) GetAttribute(storeID, attributeID uuid.UUID) (*models.Attribute, error) {
	var attribute models.Attribute
	err := s.db.Preload("Values", func(db *gorm.DB) *gorm.DB {
		return db.Order("display_order ASC, created_at ASC")
	}).Where("store_id = ?", storeID).First(&attribute, attributeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &attribute, nil
}

func (s *AttributeService) ListAttributes(storeID uuid.UUID, params utils.PaginationParams) ([]models.Attribute, int64, error) {
	query := s.db.Model(&models.Attribute{}).Where("store_id = ?", storeID)

	if params.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(params.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count attributes: %w", err)
	}

	allowedSortFields := []string{"created_at", "name", "display_order", "type"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var attributes []models.Attribute
	if err := query.Preload("Values", func(db *gorm.DB) *gorm.DB {
		return db.Order("display_order ASC, created_at ASC")
	}).Find(&attributes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch attributes: %w", err)
	}

	return attributes, total, nil
}

// UpdateAttribute edits an attribute's metadata. The type is locked as
// soon as any value rows exist, otherwise recorded values could stop
// making sense for the new type.
func (s *AttributeService) UpdateAttribute(storeID, attributeID uuid.UUID, req *UpdateAttributeRequest) (*models.Attribute, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	attribute, err := s.GetAttribute(storeID, attributeID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if req.Type != nil && *req.Type != attribute.Type {
		if !req.Type.Valid() {
			return nil, fmt.Errorf("%w: unknown attribute type %q", ErrInvalidValueSet, *req.Type)
		}
		var valueCount int64
		if err := s.db.Model(&models.AttributeValue{}).
			Where("attribute_id = ?", attribute.ID).
			Count(&valueCount).Error; err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		if valueCount > 0 {
			return nil, ErrAttributeTypeImmutable
		}
		if req.Type.RequiresValues() {
			return nil, fmt.Errorf("%w: cannot switch to %s without values", ErrInvalidValueSet, *req.Type)
		}
		updates["type"] = *req.Type
	}

	if req.Name != nil && *req.Name != attribute.Name {
		name := strings.TrimSpace(*req.Name)
		var count int64
		if err := s.db.Model(&models.Attribute{}).
			Where("store_id = ? AND name = ? AND id <> ?", storeID, name, attribute.ID).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		if count > 0 {
			return nil, ErrDuplicateAttributeName
		}
		updates["name"] = name
	}

	if req.IsVariationAxis != nil {
		updates["is_variation_axis"] = *req.IsVariationAxis
	}
	if req.IsRequired != nil {
		updates["is_required"] = *req.IsRequired
	}
	if req.DisplayOrder != nil {
		updates["display_order"] = *req.DisplayOrder
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(attribute).Updates(updates).Error; err != nil {
			if isUniqueViolation(err) {
				return nil, ErrDuplicateAttributeName
			}
			return nil, fmt.Errorf("failed to update attribute: %w", err)
		}
	}

	return s.GetAttribute(storeID, attributeID)
}

// AddAttributeValue appends a value to a choice or color attribute. Raw
// values are unique within the attribute.
func (s *AttributeService) AddAttributeValue(storeID, attributeID uuid.UUID, req *AttributeValueRequest) (*models.AttributeValue, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	attribute, err := s.GetAttribute(storeID, attributeID)
	if err != nil {
		return nil, err
	}
	if !attribute.Type.RequiresValues() {
		return nil, fmt.Errorf("%w: %s attributes do not take enumerated values", ErrInvalidValueSet, attribute.Type)
	}

	values, err := buildValues(attribute.Type, []AttributeValueRequest{*req})
	if err != nil {
		return nil, err
	}
	value := &values[0]
	value.AttributeID = attribute.ID

	var count int64
	if err := s.db.Model(&models.AttributeValue{}).
		Where("attribute_id = ? AND value = ?", attribute.ID, value.Value).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateAttributeValue
	}

	if err := s.db.Create(value).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateAttributeValue
		}
		return nil, fmt.Errorf("failed to create attribute value: %w", err)
	}

	return value, nil
}

type UpdateAttributeValueRequest struct {
	Label        *string          `json:"label,omitempty" validate:"omitempty,max=150"`
	ColorCode    *string          `json:"color_code,omitempty"`
	ExtraCost    *decimal.Decimal `json:"extra_cost,omitempty"`
	DisplayOrder *int             `json:"display_order,omitempty"`
	IsActive     *bool            `json:"is_active,omitempty"`
}

// UpdateAttributeValue edits presentation and pricing fields. The raw
// value itself is not editable; variants reference it by id and their
// SKUs embed it.
func (s *AttributeService) UpdateAttributeValue(storeID, attributeID, valueID uuid.UUID, req *UpdateAttributeValueRequest) (*models.AttributeValue, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	attribute, err := s.GetAttribute(storeID, attributeID)
	if err != nil {
		return nil, err
	}

	var value models.AttributeValue
	if err := s.db.Where("attribute_id = ?", attribute.ID).First(&value, valueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	updates := make(map[string]interface{})
	if req.Label != nil {
		updates["label"] = *req.Label
	}
	if req.ColorCode != nil {
		if attribute.Type != models.AttributeTypeColor {
			return nil, fmt.Errorf("%w: color codes only apply to color attributes", ErrInvalidColorCode)
		}
		if !hexColorPattern.MatchString(*req.ColorCode) {
			return nil, ErrInvalidColorCode
		}
		updates["color_code"] = strings.ToLower(*req.ColorCode)
	}
	if req.ExtraCost != nil {
		updates["extra_cost"] = *req.ExtraCost
	}
	if req.DisplayOrder != nil {
		updates["display_order"] = *req.DisplayOrder
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(&value).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update attribute value: %w", err)
		}
	}

	return &value, nil
}

// BindAttributeToProduct attaches an attribute to a product node at the
// given axis position. Internal nodes take bindings freely since they
// only narrow the set for descendants. A leaf that already owns variants
// rejects the bind: changing its attribute set would orphan them, and
// the owner must regenerate variants explicitly instead.
func (s *AttributeService) BindAttributeToProduct(storeID, productID, attributeID uuid.UUID, position int) (*models.ProductAttributeBinding, error) {
	var product models.Product
	if err := s.db.Where("store_id = ?", storeID).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if product.IsLeaf {
		var variantCount int64
		if err := s.db.Model(&models.Variant{}).Where("product_id = ?", product.ID).Count(&variantCount).Error; err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		if variantCount > 0 {
			return nil, ErrNotLeafEligible
		}
	}

	attribute, err := s.GetAttribute(storeID, attributeID)
	if err != nil {
		return nil, err
	}

	binding := &models.ProductAttributeBinding{
		ProductID:   product.ID,
		AttributeID: attribute.ID,
		Position:    position,
	}
	if err := s.db.Create(binding).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("attribute already bound to product: %w", ErrInvalidValueSet)
		}
		return nil, fmt.Errorf("failed to bind attribute: %w", err)
	}

	return binding, nil
}

func (s *AttributeService) UnbindAttributeFromProduct(storeID, productID, attributeID uuid.UUID) error {
	var product models.Product
	if err := s.db.Where("store_id = ?", storeID).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	result := s.db.Unscoped().
		Where("product_id = ? AND attribute_id = ?", product.ID, attributeID).
		Delete(&models.ProductAttributeBinding{})
	if result.Error != nil {
		return fmt.Errorf("failed to unbind attribute: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// buildValues validates a batch of value requests against the attribute
// type and rejects duplicates within the batch itself.
func buildValues(attrType models.AttributeType, reqs []AttributeValueRequest) ([]models.AttributeValue, error) {
	seen := make(map[string]bool, len(reqs))
	values := make([]models.AttributeValue, 0, len(reqs))

	for _, vr := range reqs {
		raw := strings.TrimSpace(vr.Value)
		if raw == "" {
			return nil, fmt.Errorf("%w: empty value", ErrInvalidValueSet)
		}
		if seen[raw] {
			return nil, ErrDuplicateAttributeValue
		}
		seen[raw] = true

		colorCode := strings.TrimSpace(vr.ColorCode)
		if attrType == models.AttributeTypeColor {
			if colorCode == "" || !hexColorPattern.MatchString(colorCode) {
				return nil, ErrInvalidColorCode
			}
			colorCode = strings.ToLower(colorCode)
		} else if colorCode != "" {
			return nil, fmt.Errorf("%w: color codes only apply to color attributes", ErrInvalidColorCode)
		}
		if vr.ExtraCost.IsNegative() {
			return nil, fmt.Errorf("%w: extra cost cannot be negative", ErrInvalidValueSet)
		}

		values = append(values, models.AttributeValue{
			Value:        raw,
			Label:        strings.TrimSpace(vr.Label),
			ColorCode:    colorCode,
			ExtraCost:    vr.ExtraCost,
			DisplayOrder: vr.DisplayOrder,
			IsActive:     true,
		})
	}

	return values, nil
}
