// internal/middleware/tenant.go
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openmall/mall-backend/internal/i18n"
	"github.com/openmall/mall-backend/internal/models"
	"github.com/openmall/mall-backend/internal/services"
	"github.com/openmall/mall-backend/internal/utils"
)

const (
	contextKeyStore       = "tenant_store"
	contextKeyContextKind = "tenant_kind"
)

// TenantResolver resolves the Host header into a tenant context before
// any storefront handler runs. Unknown domains get a generic not-found
// response; there is no fallback store, so wrong-domain traffic can
// never read another tenant's data.
func TenantResolver(stores *services.StoreService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tc, err := stores.ResolveDomain(c.Request.Context(), c.Request.Host)
		if err != nil {
			if errors.Is(err, services.ErrUnknownDomain) {
				lang := utils.GetLangFromContext(c)
				utils.ErrorResponse(c, http.StatusNotFound, "UNKNOWN_DOMAIN",
					i18n.T(lang, i18n.KeyStoreUnknownDomain), nil)
				c.Abort()
				return
			}
			utils.InternalErrorResponse(c, "")
			c.Abort()
			return
		}

		c.Set(contextKeyContextKind, tc.Kind)
		if tc.Store != nil {
			c.Set(contextKeyStore, tc.Store)
		}
		c.Next()
	}
}

// StoreContextRequired rejects requests that resolved to the platform
// domain rather than a store domain.
func StoreContextRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetStoreFromContext(c); !ok {
			lang := utils.GetLangFromContext(c)
			utils.ErrorResponse(c, http.StatusNotFound, "UNKNOWN_DOMAIN",
				i18n.T(lang, i18n.KeyStoreUnknownDomain), nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

func GetStoreFromContext(c *gin.Context) (*models.Store, bool) {
	v, exists := c.Get(contextKeyStore)
	if !exists {
		return nil, false
	}
	store, ok := v.(*models.Store)
	return store, ok
}

func GetContextKind(c *gin.Context) (services.ContextKind, bool) {
	v, exists := c.Get(contextKeyContextKind)
	if !exists {
		return "", false
	}
	kind, ok := v.(services.ContextKind)
	return kind, ok
}
