// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openmall/mall-backend/internal/i18n"
	"github.com/openmall/mall-backend/internal/models"
	"github.com/openmall/mall-backend/internal/services"
	"github.com/openmall/mall-backend/internal/utils"
)

// AdminHandler covers the platform console: store approval and user
// moderation.
type AdminHandler struct {
	db           *gorm.DB
	storeService *services.StoreService
}

func NewAdminHandler(db *gorm.DB, storeService *services.StoreService) *AdminHandler {
	return &AdminHandler{
		db:           db,
		storeService: storeService,
	}
}

// GET /admin/stores
func (h *AdminHandler) ListStores(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	var status *models.StoreStatus
	if s := c.Query("status"); s != "" {
		st := models.StoreStatus(s)
		status = &st
	}

	stores, total, err := h.storeService.ListStores(params, status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(stores, total, params))
}

// POST /admin/stores/:id/approve
func (h *AdminHandler) ApproveStore(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	storeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid store ID", nil)
		return
	}

	store, err := h.storeService.ApproveStore(c.Request.Context(), storeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyStoreApproved),
		"store":   store,
	})
}

// POST /admin/stores/:id/deactivate
func (h *AdminHandler) DeactivateStore(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	storeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid store ID", nil)
		return
	}

	store, err := h.storeService.DeactivateStore(c.Request.Context(), storeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyStoreDeactivated),
		"store":   store,
	})
}

// GET /admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	query := h.db.Model(&models.User{})
	if userType := c.Query("user_type"); userType != "" {
		query = query.Where("user_type = ?", userType)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if params.Search != "" {
		searchTerm := "%" + params.Search + "%"
		query = query.Where("username ILIKE ? OR email ILIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	allowedSortFields := []string{"created_at", "username", "email", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(users, total, params))
}

// GET /admin/audit-logs
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	query := h.db.Model(&models.AuditLog{}).Preload("User")
	if storeID := c.Query("store_id"); storeID != "" {
		id, err := uuid.Parse(storeID)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid store ID", nil)
			return
		}
		query = query.Where("store_id = ?", id)
	}
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if resourceType := c.Query("resource_type"); resourceType != "" {
		query = query.Where("resource_type = ?", resourceType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	allowedSortFields := []string{"created_at", "action", "resource_type"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(logs, total, params))
}

// POST /admin/users/:userId/suspend
func (h *AdminHandler) SuspendUser(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	h.setUserStatus(c, models.UserStatusSuspended, i18n.T(lang, i18n.KeyAdminUserSuspended))
}

// POST /admin/users/:userId/unsuspend
func (h *AdminHandler) UnsuspendUser(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	h.setUserStatus(c, models.UserStatusActive, i18n.T(lang, i18n.KeyAdminUserUnsuspended))
}

func (h *AdminHandler) setUserStatus(c *gin.Context, status models.UserStatus, message string) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	result := h.db.Model(&models.User{}).Where("id = ?", userID).Update("status", status)
	if result.Error != nil {
		utils.InternalErrorResponse(c, result.Error.Error())
		return
	}
	if result.RowsAffected == 0 {
		utils.NotFoundResponse(c, "user")
		return
	}

	utils.SuccessResponse(c, gin.H{"message": message})
}
