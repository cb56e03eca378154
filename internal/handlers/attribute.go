// internal/handlers/attribute.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openmall/mall-backend/internal/i18n"
	"github.com/openmall/mall-backend/internal/services"
	"github.com/openmall/mall-backend/internal/utils"
)

type AttributeHandler struct {
	attributeService *services.AttributeService
	storeService     *services.StoreService
}

func NewAttributeHandler(attributeService *services.AttributeService, storeService *services.StoreService) *AttributeHandler {
	return &AttributeHandler{
		attributeService: attributeService,
		storeService:     storeService,
	}
}

// ownedStoreID parses :id and verifies the caller owns that store.
func (h *AttributeHandler) ownedStoreID(c *gin.Context) (uuid.UUID, bool) {
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

// POST /stores/:id/attributes
func (h *AttributeHandler) DefineAttribute(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	storeID, ok := h.ownedStoreID(c)
	if !ok {
		return
	}

	var req services.DefineAttributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	attribute, err := h.attributeService.DefineAttribute(storeID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":   i18n.T(lang, i18n.KeyAttributeCreated),
		"attribute": attribute,
	})
}

// GET /stores/:id/attributes
func (h *AttributeHandler) ListAttributes(c *gin.Context) {
	storeID, ok := h.ownedStoreID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	attributes, total, err := h.attributeService.ListAttributes(storeID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(attributes, total, params))
}

// GET /stores/:id/attributes/:attrId
func (h *AttributeHandler) GetAttribute(c *gin.Context) {
	storeID, ok := h.ownedStoreID(c)
	if !ok {
		return
	}

	attrID, err := uuid.Parse(c.Param("attrId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid attribute ID", nil)
		return
	}

	attribute, err := h.attributeService.GetAttribute(storeID, attrID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"attribute": attribute})
}

// PUT /stores/:id/attributes/:attrId
func (h *AttributeHandler) UpdateAttribute(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	storeID, ok := h.ownedStoreID(c)
	if !ok {
		return
	}

	attrID, err := uuid.Parse(c.Param("attrId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid attribute ID", nil)
		return
	}

	var req services.UpdateAttributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	attribute, err := h.attributeService.UpdateAttribute(storeID, attrID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":   i18n.T(lang, i18n.KeyAttributeUpdated),
		"attribute": attribute,
	})
}

// POST /stores/:id/attributes/:attrId/values
func (h *AttributeHandler) AddAttributeValue(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	storeID, ok := h.ownedStoreID(c)
	if !ok {
		return
	}

	attrID, err := uuid.Parse(c.Param("attrId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid attribute ID", nil)
		return
	}

	var req services.AttributeValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	value, err := h.attributeService.AddAttributeValue(storeID, attrID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAttributeValueAdded),
		"value":   value,
	})
}

// PUT /stores/:id/attributes/:attrId/values/:valueId
func (h *AttributeHandler) UpdateAttributeValue(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	storeID, ok := h.ownedStoreID(c)
	if !ok {
		return
	}

	attrID, err := uuid.Parse(c.Param("attrId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid attribute ID", nil)
		return
	}
	valueID, err := uuid.Parse(c.Param("valueId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid value ID", nil)
		return
	}

	var req services.UpdateAttributeValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	value, err := h.attributeService.UpdateAttributeValue(storeID, attrID, valueID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAttributeUpdated),
		"value":   value,
	})
}

// POST /stores/:id/products/:productId/attributes/:attrId
func (h *AttributeHandler) BindAttribute(c *gin.Context) {
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
	attrID, err := uuid.Parse(c.Param("attrId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid attribute ID", nil)
		return
	}

	var req struct {
		Position int `json:"position"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	binding, err := h.attributeService.BindAttributeToProduct(storeID, productID, attrID, req.Position)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAttributeBound),
		"binding": binding,
	})
}

// DELETE /stores/:id/products/:productId/attributes/:attrId
func (h *AttributeHandler) UnbindAttribute(c *gin.Context) {
	storeID, ok := h.ownedStoreID(c)
	if !ok {
		return
	}

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}
	attrID, err := uuid.Parse(c.Param("attrId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid attribute ID", nil)
		return
	}

	if err := h.attributeService.UnbindAttributeFromProduct(storeID, productID, attrID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "unbound"})
}
