// internal/handlers/store.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openmall/mall-backend/internal/i18n"
	"github.com/openmall/mall-backend/internal/models"
	"github.com/openmall/mall-backend/internal/services"
	"github.com/openmall/mall-backend/internal/utils"
)

type StoreHandler struct {
	storeService *services.StoreService
}

func NewStoreHandler(storeService *services.StoreService) *StoreHandler {
	return &StoreHandler{
		storeService: storeService,
	}
}

// POST /stores
func (h *StoreHandler) CreateStore(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	ownerID, ok := utils.GetUserUUIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	store, err := h.storeService.CreateStore(ownerID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyStoreCreated),
		"store":   store,
	})
}

// GET /stores
func (h *StoreHandler) ListOwnerStores(c *gin.Context) {
	ownerID, ok := utils.GetUserUUIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	stores, err := h.storeService.GetOwnerStores(ownerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"stores": stores})
}

// GET /stores/:id
func (h *StoreHandler) GetStore(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid store ID", nil)
		return
	}

	store, err := h.storeService.GetStore(storeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// Owners see their own stores, admins see everything
	userID, _ := utils.GetUserUUIDFromContext(c)
	userType, _ := utils.GetUserTypeFromContext(c)
	if store.OwnerID != userID && userType != string(models.UserTypeAdmin) {
		utils.ForbiddenResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{"store": store})
}

// PUT /stores/:id
func (h *StoreHandler) UpdateStore(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	storeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid store ID", nil)
		return
	}

	ownerID, ok := utils.GetUserUUIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.UpdateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	store, err := h.storeService.UpdateStore(storeID, ownerID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyStoreUpdated),
		"store":   store,
	})
}

// POST /stores/:id/domains
func (h *StoreHandler) BindDomain(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	storeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid store ID", nil)
		return
	}

	ownerID, ok := utils.GetUserUUIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.BindDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	binding, err := h.storeService.BindDomain(c.Request.Context(), storeID, ownerID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyStoreDomainBound),
		"domain":  binding,
	})
}

// DELETE /stores/:id/domains/:domain
func (h *StoreHandler) UnbindDomain(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	storeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid store ID", nil)
		return
	}

	ownerID, ok := utils.GetUserUUIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	if err := h.storeService.UnbindDomain(c.Request.Context(), storeID, ownerID, c.Param("domain")); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyStoreDomainRemoved),
	})
}

// PUT /stores/:id/domains/:domain/primary
func (h *StoreHandler) SetPrimaryDomain(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	storeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid store ID", nil)
		return
	}

	ownerID, ok := utils.GetUserUUIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	if err := h.storeService.SetPrimaryDomain(c.Request.Context(), storeID, ownerID, c.Param("domain")); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyStorePrimaryDomain),
	})
}
