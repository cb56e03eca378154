// internal/middleware/language.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openmall/mall-backend/internal/config"
	"github.com/openmall/mall-backend/internal/i18n"
)

// Language picks the response language from the Accept-Language header,
// falling back to the configured default. Only the primary subtag is
// considered, so "fa-IR,fa;q=0.9" selects "fa".
func Language(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := cfg.I18n.DefaultLocale

		header := c.GetHeader("Accept-Language")
		if header != "" {
			primary := strings.TrimSpace(strings.Split(header, ",")[0])
			primary = strings.Split(primary, ";")[0]
			primary = strings.ToLower(strings.Split(primary, "-")[0])
			for _, supported := range i18n.GetSupportedLanguages() {
				if primary == supported {
					lang = primary
					break
				}
			}
		}

		c.Set("lang", lang)
		c.Next()
	}
}
