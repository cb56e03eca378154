// internal/services/variant_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/openmall/mall-backend/internal/config"
	"github.com/openmall/mall-backend/internal/models"
	"github.com/openmall/mall-backend/internal/utils"
)

type VariantService struct {
	db       *gorm.DB
	cfg      *config.Config
	products *ProductService
}

// axis is one variation dimension of a product, with its value list in
// display order.
type axis struct {
	attribute models.Attribute
	values    []models.AttributeValue
}

// GenerationSummary reports one generation run. Existing counts
// combinations that already had a variant and were left untouched.
type GenerationSummary struct {
	TotalCombinations int              `json:"total_combinations"`
	Created           []models.Variant `json:"created"`
	CreatedCount      int              `json:"created_count"`
	Existing          int              `json:"existing"`
}

// Resolution is the outcome of matching a customer's selection against a
// product's variants. Variant is set only when the selection covered all
// axes and matched exactly one active variant; otherwise Available lists,
// per unresolved axis, the value ids still reachable through active
// in-stock variants consistent with the partial selection.
type Resolution struct {
	Variant   *models.Variant           `json:"variant,omitempty"`
	Available map[uuid.UUID][]uuid.UUID `json:"available,omitempty"`
}

func NewVariantService(db *gorm.DB, cfg *config.Config, products *ProductService) *VariantService {
	return &VariantService{db: db, cfg: cfg, products: products}
}

// Generate materializes the full combination set of a leaf product's
// variation axes. Runs are idempotent: combinations that already exist
// keep their variant untouched, only missing ones are inserted, and the
// whole run commits atomically. The combination count is checked against
// the configured ceiling before anything is written.
func (s *VariantService) Generate(ctx context.Context, storeID, productID uuid.UUID) (*GenerationSummary, error) {
	product, err := s.products.GetProduct(storeID, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsLeaf {
		return nil, ErrNotLeafEligible
	}

	axes, err := s.variationAxes(storeID, productID)
	if err != nil {
		return nil, err
	}
	if len(axes) == 0 {
		return nil, ErrNoVariationAxes
	}

	total := 1
	for _, ax := range axes {
		total *= len(ax.values)
		if total > s.cfg.Catalog.MaxCombinations {
			return nil, fmt.Errorf("%w: %d axes would yield more than %d combinations",
				ErrTooManyCombinations, len(axes), s.cfg.Catalog.MaxCombinations)
		}
	}

	summary := &GenerationSummary{TotalCombinations: total}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.Variant
		if err := tx.Where("product_id = ?", product.ID).Find(&existing).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		existingKeys := make(map[string]bool, len(existing))
		for _, v := range existing {
			existingKeys[v.SelectionKey] = true
		}

		usedSKUs := make(map[string]bool)

		// Odometer walk over the value lists. Axis order follows binding
		// position and value order follows display order, so the same
		// inputs always produce the same sequence and the same SKUs.
		idx := make([]int, len(axes))
		for {
			if err := ctx.Err(); err != nil {
				return err
			}

			selection := make(map[uuid.UUID]uuid.UUID, len(axes))
			tokens := make([]string, 0, len(axes)+1)
			tokens = append(tokens, product.Slug)
			for i, ax := range axes {
				val := ax.values[idx[i]]
				selection[ax.attribute.ID] = val.ID
				tokens = append(tokens, skuToken(val.Value))
			}

			key := models.SelectionKeyFor(selection)
			if !existingKeys[key] {
				sku, err := s.uniqueSKU(tx, strings.Join(tokens, s.cfg.Catalog.SKUSeparator), usedSKUs)
				if err != nil {
					return err
				}
				// Value extra costs are not folded in here: FinalPrice adds
				// them at read time, and the adjustment stays the owner's
				// manual per-variant knob.
				variant := models.Variant{
					ProductID:       product.ID,
					SKU:             sku,
					Selection:       models.SelectionJSONB(selection),
					SelectionKey:    key,
					PriceAdjustment: decimal.Zero,
					StockQuantity:   0,
					IsActive:        true,
				}
				if err := tx.Create(&variant).Error; err != nil {
					if isUniqueViolation(err) {
						return ErrDuplicateSelection
					}
					return fmt.Errorf("failed to create variant: %w", err)
				}
				summary.Created = append(summary.Created, variant)
			} else {
				summary.Existing++
			}

			// Advance the odometer, most-significant axis first.
			pos := len(axes) - 1
			for pos >= 0 {
				idx[pos]++
				if idx[pos] < len(axes[pos].values) {
					break
				}
				idx[pos] = 0
				pos--
			}
			if pos < 0 {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary.CreatedCount = len(summary.Created)
	return summary, nil
}

type CreateVariantRequest struct {
	SKU             string                  `json:"sku,omitempty" validate:"omitempty,max=150"`
	Selection       map[uuid.UUID]uuid.UUID `json:"selection" validate:"required"`
	PriceAdjustment decimal.Decimal         `json:"price_adjustment"`
	StockQuantity   int                     `json:"stock_quantity" validate:"min=0"`
}

// CreateVariant inserts a single variant by hand, for owners who stock
// only a few combinations instead of the full cartesian set. The
// selection must cover every variation axis exactly once with known
// values. Without an explicit SKU one is derived the same way Generate
// derives them.
func (s *VariantService) CreateVariant(storeID, productID uuid.UUID, req *CreateVariantRequest) (*models.Variant, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product, err := s.products.GetProduct(storeID, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsLeaf {
		return nil, ErrNotLeafEligible
	}

	axes, err := s.variationAxes(storeID, productID)
	if err != nil {
		return nil, err
	}
	if len(axes) == 0 {
		return nil, ErrNoVariationAxes
	}

	tokens := make([]string, 0, len(axes)+1)
	tokens = append(tokens, product.Slug)
	for _, ax := range axes {
		valID, ok := req.Selection[ax.attribute.ID]
		if !ok {
			return nil, ErrIncompleteSelection
		}
		var value *models.AttributeValue
		for i := range ax.values {
			if ax.values[i].ID == valID {
				value = &ax.values[i]
				break
			}
		}
		if value == nil {
			return nil, fmt.Errorf("%w: unknown value for axis %q", ErrInvalidValueSet, ax.attribute.Name)
		}
		tokens = append(tokens, skuToken(value.Value))
	}
	if len(req.Selection) != len(axes) {
		return nil, fmt.Errorf("%w: selection names attributes that are not variation axes", ErrInvalidValueSet)
	}

	key := models.SelectionKeyFor(req.Selection)

	variant := &models.Variant{
		ProductID:       product.ID,
		Selection:       models.SelectionJSONB(req.Selection),
		SelectionKey:    key,
		PriceAdjustment: req.PriceAdjustment,
		StockQuantity:   req.StockQuantity,
		IsActive:        true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Variant{}).
			Where("product_id = ? AND selection_key = ?", product.ID, key).
			Count(&count).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if count > 0 {
			return ErrDuplicateSelection
		}

		if sku := strings.TrimSpace(req.SKU); sku != "" {
			variant.SKU = sku
		} else {
			derived, err := s.uniqueSKU(tx, strings.Join(tokens, s.cfg.Catalog.SKUSeparator), map[string]bool{})
			if err != nil {
				return err
			}
			variant.SKU = derived
		}

		if err := tx.Create(variant).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("sku already in use: %w", ErrInvalidValueSet)
			}
			return fmt.Errorf("failed to create variant: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return variant, nil
}

// Resolve matches a customer selection. A complete selection resolves to
// exactly one active variant or fails with ErrNoMatchingVariant; an
// inactive match is indistinguishable from no match on this path. A
// partial selection returns per-axis availability instead.
func (s *VariantService) Resolve(storeID, productID uuid.UUID, selection map[uuid.UUID]uuid.UUID) (*Resolution, error) {
	return s.resolve(storeID, productID, selection, false)
}

// LookupVariant is the owner-side exact lookup. Unlike Resolve it
// requires a complete selection and reports an inactive match as
// ErrVariantInactive so the owner can reactivate it.
func (s *VariantService) LookupVariant(storeID, productID uuid.UUID, selection map[uuid.UUID]uuid.UUID) (*models.Variant, error) {
	res, err := s.resolve(storeID, productID, selection, true)
	if err != nil {
		return nil, err
	}
	if res.Variant == nil {
		return nil, ErrIncompleteSelection
	}
	return res.Variant, nil
}

func (s *VariantService) resolve(storeID, productID uuid.UUID, selection map[uuid.UUID]uuid.UUID, ownerView bool) (*Resolution, error) {
	axes, err := s.variationAxes(storeID, productID)
	if err != nil {
		return nil, err
	}
	if len(axes) == 0 {
		return nil, ErrNoVariationAxes
	}

	axisValues := make(map[uuid.UUID]map[uuid.UUID]bool, len(axes))
	for _, ax := range axes {
		vals := make(map[uuid.UUID]bool, len(ax.values))
		for _, v := range ax.values {
			vals[v.ID] = true
		}
		axisValues[ax.attribute.ID] = vals
	}

	// Selections naming unknown axes or values cannot match anything.
	for attrID, valID := range selection {
		vals, ok := axisValues[attrID]
		if !ok || !vals[valID] {
			return nil, ErrNoMatchingVariant
		}
	}

	if len(selection) == len(axes) {
		return s.resolveExact(productID, selection, ownerView)
	}
	return s.resolvePartial(productID, axes, selection)
}

func (s *VariantService) resolveExact(productID uuid.UUID, selection map[uuid.UUID]uuid.UUID, ownerView bool) (*Resolution, error) {
	key := models.SelectionKeyFor(selection)

	var matches []models.Variant
	if err := s.db.Where("product_id = ? AND selection_key = ?", productID, key).Find(&matches).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, ErrNoMatchingVariant
	case 1:
		variant := matches[0]
		if !variant.IsActive {
			if ownerView {
				return nil, ErrVariantInactive
			}
			return nil, ErrNoMatchingVariant
		}
		return &Resolution{Variant: &variant}, nil
	default:
		// The unique index makes this unreachable through normal writes,
		// so hitting it means the data itself is damaged.
		logrus.WithFields(logrus.Fields{
			"product_id":    productID,
			"selection_key": key,
			"match_count":   len(matches),
		}).Error("Data integrity alert: selection key matches multiple variants")
		return nil, ErrAmbiguousSelection
	}
}

func (s *VariantService) resolvePartial(productID uuid.UUID, axes []axis, selection map[uuid.UUID]uuid.UUID) (*Resolution, error) {
	var candidates []models.Variant
	err := s.db.Where("product_id = ? AND is_active = ? AND stock_quantity > 0", productID, true).
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	available := make(map[uuid.UUID][]uuid.UUID)
	seen := make(map[uuid.UUID]map[uuid.UUID]bool)
	for _, ax := range axes {
		if _, chosen := selection[ax.attribute.ID]; chosen {
			continue
		}
		available[ax.attribute.ID] = []uuid.UUID{}
		seen[ax.attribute.ID] = make(map[uuid.UUID]bool)
	}

	for _, v := range candidates {
		sel := v.SelectionMap()
		consistent := true
		for attrID, valID := range selection {
			if sel[attrID] != valID {
				consistent = false
				break
			}
		}
		if !consistent {
			continue
		}
		for attrID := range available {
			valID, ok := sel[attrID]
			if !ok || seen[attrID][valID] {
				continue
			}
			seen[attrID][valID] = true
			available[attrID] = append(available[attrID], valID)
		}
	}

	return &Resolution{Available: available}, nil
}

func (s *VariantService) GetVariant(variantID uuid.UUID) (*models.Variant, error) {
	var variant models.Variant
	if err := s.db.Preload("Product").First(&variant, variantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &variant, nil
}

func (s *VariantService) ListVariants(storeID, productID uuid.UUID) ([]models.Variant, error) {
	if _, err := s.products.GetProduct(storeID, productID); err != nil {
		return nil, err
	}
	var variants []models.Variant
	if err := s.db.Where("product_id = ?", productID).Order("sku ASC").Find(&variants).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch variants: %w", err)
	}
	return variants, nil
}

type UpdateVariantRequest struct {
	PriceAdjustment *decimal.Decimal `json:"price_adjustment,omitempty"`
	StockQuantity   *int             `json:"stock_quantity,omitempty" validate:"omitempty,min=0"`
	IsActive        *bool            `json:"is_active,omitempty"`
}

func (s *VariantService) UpdateVariant(variantID uuid.UUID, req *UpdateVariantRequest) (*models.Variant, error) {
	variant, err := s.GetVariant(variantID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.PriceAdjustment != nil {
		updates["price_adjustment"] = *req.PriceAdjustment
	}
	if req.StockQuantity != nil {
		if *req.StockQuantity < 0 {
			return nil, fmt.Errorf("validation failed: stock cannot be negative")
		}
		updates["stock_quantity"] = *req.StockQuantity
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(variant).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update variant: %w", err)
		}
	}
	return variant, nil
}

// DecrementStock atomically takes qty units off a variant. The guard
// lives in the UPDATE's WHERE clause, so under concurrent purchases of
// the last unit exactly one caller wins and the rest see
// ErrInsufficientStock.
func (s *VariantService) DecrementStock(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("validation failed: quantity must be positive")
	}
	if tx == nil {
		tx = s.db
	}

	result := tx.WithContext(ctx).Model(&models.Variant{}).
		Where("id = ? AND stock_quantity >= ?", variantID, qty).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if result.Error != nil {
		return fmt.Errorf("failed to decrement stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.Variant{}).Where("id = ?", variantID).Count(&count).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

// Restock adds qty units back, e.g. on order cancellation.
func (s *VariantService) Restock(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("validation failed: quantity must be positive")
	}
	if tx == nil {
		tx = s.db
	}

	result := tx.WithContext(ctx).Model(&models.Variant{}).
		Where("id = ?", variantID).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", qty))
	if result.Error != nil {
		return fmt.Errorf("failed to restock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FinalPrice recomputes a variant's sell price from current data: the
// product base price, the variant adjustment, and the extra costs of the
// selected values. Nothing is stored, so edits upstream take effect on
// the next read.
func (s *VariantService) FinalPrice(variant *models.Variant) (decimal.Decimal, error) {
	return s.finalPrice(s.db, variant)
}

func (s *VariantService) finalPrice(db *gorm.DB, variant *models.Variant) (decimal.Decimal, error) {
	var product models.Product
	if err := db.First(&product, variant.ProductID).Error; err != nil {
		return decimal.Zero, fmt.Errorf("database error: %w", err)
	}

	price := product.BasePrice.Add(variant.PriceAdjustment)

	selection := variant.SelectionMap()
	if len(selection) == 0 {
		return price, nil
	}
	valueIDs := make([]uuid.UUID, 0, len(selection))
	for _, valID := range selection {
		valueIDs = append(valueIDs, valID)
	}

	var values []models.AttributeValue
	if err := db.Where("id IN ?", valueIDs).Find(&values).Error; err != nil {
		return decimal.Zero, fmt.Errorf("database error: %w", err)
	}
	for _, v := range values {
		price = price.Add(v.ExtraCost)
	}

	return price, nil
}

// variationAxes loads a product's effective variation-axis attributes in
// binding-position order, each with its active values in display order.
// Axes whose type cannot enumerate values are rejected rather than
// silently skipped.
func (s *VariantService) variationAxes(storeID, productID uuid.UUID) ([]axis, error) {
	bindings, err := s.products.EffectiveBindings(storeID, productID)
	if err != nil {
		return nil, err
	}

	axes := make([]axis, 0, len(bindings))
	for _, b := range bindings {
		attr := b.Attribute
		if !attr.IsVariationAxis || !attr.IsActive {
			continue
		}
		if !attr.Type.RequiresValues() {
			return nil, fmt.Errorf("%w: %s attribute %q cannot be a variation axis", ErrInvalidValueSet, attr.Type, attr.Name)
		}
		values := make([]models.AttributeValue, 0, len(attr.Values))
		for _, v := range attr.Values {
			if v.IsActive {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("%w: variation axis %q has no active values", ErrInvalidValueSet, attr.Name)
		}
		axes = append(axes, axis{attribute: attr, values: values})
	}
	return axes, nil
}

// uniqueSKU appends a numeric suffix when the base SKU is already taken,
// either in the database or earlier in this generation run.
func (s *VariantService) uniqueSKU(tx *gorm.DB, base string, used map[string]bool) (string, error) {
	candidate := base
	for n := 2; ; n++ {
		if !used[candidate] {
			var count int64
			if err := tx.Model(&models.Variant{}).Where("sku = ?", candidate).Count(&count).Error; err != nil {
				return "", fmt.Errorf("database error: %w", err)
			}
			if count == 0 {
				used[candidate] = true
				return candidate, nil
			}
		}
		candidate = fmt.Sprintf("%s%s%d", base, s.cfg.Catalog.SKUSeparator, n)
	}
}

var skuStrip = regexp.MustCompile(`[^a-z0-9]+`)

// skuToken normalizes a raw attribute value for use inside a SKU.
func skuToken(raw string) string {
	token := strings.ToLower(strings.TrimSpace(raw))
	token = skuStrip.ReplaceAllString(token, "")
	if token == "" {
		token = "x"
	}
	return token
}
