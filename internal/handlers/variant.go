// internal/handlers/variant.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openmall/mall-backend/internal/i18n"
	"github.com/openmall/mall-backend/internal/services"
	"github.com/openmall/mall-backend/internal/utils"
)

type VariantHandler struct {
	variantService *services.VariantService
	storeService   *services.StoreService
}

func NewVariantHandler(variantService *services.VariantService, storeService *services.StoreService) *VariantHandler {
	return &VariantHandler{
		variantService: variantService,
		storeService:   storeService,
	}
}

func (h *VariantHandler) ownedStoreID(c *gin.Context) (uuid.UUID, bool) {
	storeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid store ID", nil)
		return uuid.Nil, false
	}

	ownerID, ok := utils.GetUserUUIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}

	store, err := h.storeService.GetStore(storeID)
	if err != nil {
		respondServiceError(c, err)
		return uuid.Nil, false
	}
	if store.OwnerID != ownerID {
		utils.ForbiddenResponse(c, "")
		return uuid.Nil, false
	}

	return storeID, true
}

// parseSelection turns the wire form {"attribute_id": "value_id"} into
// typed uuids.
func parseSelection(raw map[string]string) (map[uuid.UUID]uuid.UUID, error) {
	selection := make(map[uuid.UUID]uuid.UUID, len(raw))
	for attrStr, valStr := range raw {
		attrID, err := uuid.Parse(attrStr)
		if err != nil {
			return nil, err
		}
		valID, err := uuid.Parse(valStr)
		if err != nil {
			return nil, err
		}
		selection[attrID] = valID
	}
	return selection, nil
}

// POST /stores/:id/products/:productId/variants/generate
func (h *VariantHandler) GenerateVariants(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	storeID, ok := h.ownedStoreID(c)
	if !ok {
		return
	}

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	summary, err := h.variantService.Generate(c.Request.Context(), storeID, productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyVariantGenerated),
		"summary": summary,
	})
}

// POST /stores/:id/products/:productId/variants
func (h *VariantHandler) CreateVariant(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	storeID, ok := h.ownedStoreID(c)
	if !ok {
		return
	}

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	var req struct {
		SKU             string            `json:"sku,omitempty"`
		Selection       map[string]string `json:"selection"`
		PriceAdjustment decimal.Decimal   `json:"price_adjustment"`
		StockQuantity   int               `json:"stock_quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	selection, err := parseSelection(req.Selection)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "selection"), err.Error())
		return
	}

	variant, err := h.variantService.CreateVariant(storeID, productID, &services.CreateVariantRequest{
		SKU:             req.SKU,
		Selection:       selection,
		PriceAdjustment: req.PriceAdjustment,
		StockQuantity:   req.StockQuantity,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyVariantCreated),
		"variant": variant,
	})
}

// GET /stores/:id/products/:productId/variants
func (h *VariantHandler) ListVariants(c *gin.Context) {
	storeID, ok := h.ownedStoreID(c)
	if !ok {
		return
	}

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	variants, err := h.variantService.ListVariants(storeID, productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"variants": variants})
}

// POST /stores/:id/products/:productId/variants/lookup
func (h *VariantHandler) LookupVariant(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	storeID, ok := h.ownedStoreID(c)
	if !ok {
		return
	}

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	var req struct {
		Selection map[string]string `json:"selection" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	selection, err := parseSelection(req.Selection)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "selection"), err.Error())
		return
	}

	variant, err := h.variantService.LookupVariant(storeID, productID, selection)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	price, err := h.variantService.FinalPrice(variant)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"variant":     variant,
		"final_price": price,
	})
}

// PUT /stores/:id/variants/:variantId
func (h *VariantHandler) UpdateVariant(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	storeID, ok := h.ownedStoreID(c)
	if !ok {
		return
	}

	variantID, err := uuid.Parse(c.Param("variantId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid variant ID", nil)
		return
	}

	variant, err := h.variantService.GetVariant(variantID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if variant.Product.StoreID != storeID {
		utils.NotFoundResponse(c, "variant")
		return
	}

	var req services.UpdateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	updated, err := h.variantService.UpdateVariant(variantID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyVariantUpdated),
		"variant": updated,
	})
}

// POST /stores/:id/variants/:variantId/restock
func (h *VariantHandler) Restock(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	storeID, ok := h.ownedStoreID(c)
	if !ok {
		return
	}

	variantID, err := uuid.Parse(c.Param("variantId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid variant ID", nil)
		return
	}

	variant, err := h.variantService.GetVariant(variantID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if variant.Product.StoreID != storeID {
		utils.NotFoundResponse(c, "variant")
		return
	}

	var req struct {
		Quantity int `json:"quantity" validate:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if err := h.variantService.Restock(c.Request.Context(), nil, variantID, req.Quantity); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyVariantUpdated),
	})
}
