// internal/handlers/order.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openmall/mall-backend/internal/i18n"
	"github.com/openmall/mall-backend/internal/middleware"
	"github.com/openmall/mall-backend/internal/models"
	"github.com/openmall/mall-backend/internal/services"
	"github.com/openmall/mall-backend/internal/utils"
)

type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// POST /shop/orders
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	store, ok := middleware.GetStoreFromContext(c)
	if !ok {
		utils.NotFoundResponse(c, "store")
		return
	}

	customerID, ok := utils.GetUserUUIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	order, err := h.orderService.PlaceOrder(c.Request.Context(), store.ID, customerID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOrderPlaced),
		"order":   order,
	})
}

// GET /orders
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	customerID, ok := utils.GetUserUUIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	orders, total, err := h.orderService.ListCustomerOrders(customerID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(orders, total, params))
}

// GET /orders/:orderId
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid order ID", nil)
		return
	}

	userID, ok := utils.GetUserUUIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	order, err := h.orderService.GetOrder(orderID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"order": order})
}

// POST /orders/:orderId/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid order ID", nil)
		return
	}

	userID, ok := utils.GetUserUUIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOrderCancelled),
		"order":   order,
	})
}

// GET /stores/:id/orders
func (h *OrderHandler) ListStoreOrders(c *gin.Context) {
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

	params := utils.GetPaginationParams(c)

	var status *models.OrderStatus
	if s := c.Query("status"); s != "" {
		st := models.OrderStatus(s)
		status = &st
	}

	orders, total, err := h.orderService.ListStoreOrders(storeID, ownerID, params, status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(orders, total, params))
}

// PUT /stores/:id/orders/:orderId/status
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid order ID", nil)
		return
	}

	ownerID, ok := utils.GetUserUUIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req struct {
		Status models.OrderStatus `json:"status" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	order, err := h.orderService.UpdateOrderStatus(orderID, ownerID, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOrderUpdated),
		"order":   order,
	})
}
