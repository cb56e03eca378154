// internal/handlers/storefront.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/openmall/mall-backend/internal/i18n"
	"github.com/openmall/mall-backend/internal/middleware"
	"github.com/openmall/mall-backend/internal/services"
	"github.com/openmall/mall-backend/internal/utils"
)

// StorefrontHandler serves the customer-facing routes. Every request
// here already passed the tenant resolver, so the store comes from the
// request context, never from the URL.
type StorefrontHandler struct {
	productService *services.ProductService
	variantService *services.VariantService
}

func NewStorefrontHandler(productService *services.ProductService, variantService *services.VariantService) *StorefrontHandler {
	return &StorefrontHandler{
		productService: productService,
		variantService: variantService,
	}
}

// GET /shop
func (h *StorefrontHandler) GetStoreInfo(c *gin.Context) {
	store, ok := middleware.GetStoreFromContext(c)
	if !ok {
		utils.NotFoundResponse(c, "store")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"store": gin.H{
			"id":          store.ID,
			"name":        store.Name,
			"slug":        store.Slug,
			"description": store.Description,
			"settings":    store.Settings,
		},
	})
}

// GET /shop/products
func (h *StorefrontHandler) ListProducts(c *gin.Context) {
	store, ok := middleware.GetStoreFromContext(c)
	if !ok {
		utils.NotFoundResponse(c, "store")
		return
	}

	params := utils.GetPaginationParams(c)
	products, total, err := h.productService.ListStorefrontProducts(store.ID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params))
}

// GET /shop/products/:slug
func (h *StorefrontHandler) GetProduct(c *gin.Context) {
	store, ok := middleware.GetStoreFromContext(c)
	if !ok {
		utils.NotFoundResponse(c, "store")
		return
	}

	product, err := h.productService.GetProductBySlug(store.ID, c.Param("slug"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !product.IsSellable() {
		utils.NotFoundResponse(c, "product")
		return
	}

	bindings, err := h.productService.EffectiveBindings(store.ID, product.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.productService.IncrementViewCount(product.ID)

	utils.SuccessResponse(c, gin.H{
		"product":    product,
		"attributes": bindings,
	})
}

// POST /shop/products/:slug/resolve
//
// A complete selection answers with the matched variant and its current
// price; a partial one answers with the values still available on each
// unresolved axis so the storefront can grey out dead ends.
func (h *StorefrontHandler) ResolveVariant(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	store, ok := middleware.GetStoreFromContext(c)
	if !ok {
		utils.NotFoundResponse(c, "store")
		return
	}

	product, err := h.productService.GetProductBySlug(store.ID, c.Param("slug"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !product.IsSellable() {
		utils.NotFoundResponse(c, "product")
		return
	}

	var req struct {
		Selection map[string]string `json:"selection"`
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

	resolution, err := h.variantService.Resolve(store.ID, product.ID, selection)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if resolution.Variant != nil {
		price, err := h.variantService.FinalPrice(resolution.Variant)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		utils.SuccessResponse(c, gin.H{
			"variant":     resolution.Variant,
			"final_price": price,
			"in_stock":    resolution.Variant.InStock(),
		})
		return
	}

	utils.SuccessResponse(c, gin.H{
		"available": resolution.Available,
	})
}
