// internal/handlers/product.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openmall/mall-backend/internal/i18n"
	"github.com/openmall/mall-backend/internal/models"
	"github.com/openmall/mall-backend/internal/services"
	"github.com/openmall/mall-backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
	storeService   *services.StoreService
	storageService *services.StorageService
}

func NewProductHandler(productService *services.ProductService, storeService *services.StoreService, storageService *services.StorageService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		storeService:   storeService,
		storageService: storageService,
	}
}

func (h *ProductHandler) ownedStoreID(c *gin.Context) (uuid.UUID, bool) {
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

// POST /stores/:id/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	storeID, ok := h.ownedStoreID(c)
	if !ok {
		return
	}

	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	product, err := h.productService.CreateProduct(storeID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductCreated),
		"product": product,
	})
}

// GET /stores/:id/products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	storeID, ok := h.ownedStoreID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	var status *models.ProductStatus
	if s := c.Query("status"); s != "" {
		st := models.ProductStatus(s)
		status = &st
	}

	products, total, err := h.productService.ListProducts(storeID, params, status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params))
}

// GET /stores/:id/products/:productId
func (h *ProductHandler) GetProduct(c *gin.Context) {
	storeID, ok := h.ownedStoreID(c)
	if !ok {
		return
	}

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	product, err := h.productService.GetProduct(storeID, productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	bindings, err := h.productService.EffectiveBindings(storeID, productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product":              product,
		"effective_attributes": bindings,
	})
}

// PUT /stores/:id/products/:productId
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
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

	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	product, err := h.productService.UpdateProduct(storeID, productID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductUpdated),
		"product": product,
	})
}

// DELETE /stores/:id/products/:productId
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
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

	if err := h.productService.DeleteProduct(storeID, productID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductDeleted),
	})
}

// POST /stores/:id/products/:productId/media
func (h *ProductHandler) UploadMedia(c *gin.Context) {
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
	if _, err := h.productService.GetProduct(storeID, productID); err != nil {
		respondServiceError(c, err)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}
	defer file.Close()

	category := c.DefaultPostForm("category", "products")
	options := h.storageService.GetDefaultUploadOptions(category)

	result, err := h.storageService.UploadFile(file, header, options)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFileUploadSuccess),
		"upload":  result,
	})
}
