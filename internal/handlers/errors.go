// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openmall/mall-backend/internal/i18n"
	"github.com/openmall/mall-backend/internal/services"
	"github.com/openmall/mall-backend/internal/utils"
)

// respondServiceError maps the service error taxonomy onto HTTP. Every
// catalog handler funnels its failures through here so the same error
// kind always surfaces with the same status and code.
func respondServiceError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, services.ErrNotAuthorized):
		utils.ForbiddenResponse(c, err.Error())

	case errors.Is(err, services.ErrDuplicateAttributeName):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyAttributeDuplicateName))
	case errors.Is(err, services.ErrDuplicateAttributeValue):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyAttributeDuplicateValue))
	case errors.Is(err, services.ErrInvalidValueSet):
		utils.UnprocessableResponse(c, "INVALID_VALUE_SET", err.Error())
	case errors.Is(err, services.ErrInvalidColorCode):
		utils.UnprocessableResponse(c, "INVALID_COLOR_CODE", i18n.T(lang, i18n.KeyAttributeInvalidColor))
	case errors.Is(err, services.ErrAttributeTypeImmutable):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyAttributeTypeLocked))
	case errors.Is(err, services.ErrNotLeafEligible):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyAttributeNotLeaf))

	case errors.Is(err, services.ErrNoVariationAxes):
		utils.UnprocessableResponse(c, "NO_VARIATION_AXES", i18n.T(lang, i18n.KeyVariantNoAxes))
	case errors.Is(err, services.ErrTooManyCombinations):
		utils.UnprocessableResponse(c, "TOO_MANY_COMBINATIONS", i18n.T(lang, i18n.KeyVariantTooMany))
	case errors.Is(err, services.ErrNoMatchingVariant):
		utils.ErrorResponse(c, http.StatusNotFound, "NO_MATCHING_VARIANT", i18n.T(lang, i18n.KeyVariantNoMatch), nil)
	case errors.Is(err, services.ErrVariantInactive):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyVariantInactive))
	case errors.Is(err, services.ErrAmbiguousSelection):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyVariantAmbiguous))
	case errors.Is(err, services.ErrIncompleteSelection):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyVariantNoMatch), nil)
	case errors.Is(err, services.ErrDuplicateSelection):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrInsufficientStock):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyVariantInsufficientStock))

	case errors.Is(err, services.ErrUnknownDomain):
		utils.ErrorResponse(c, http.StatusNotFound, "UNKNOWN_DOMAIN", i18n.T(lang, i18n.KeyStoreUnknownDomain), nil)
	case errors.Is(err, services.ErrDomainTaken):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyStoreDomainTaken))
	case errors.Is(err, services.ErrLastPrimaryDomain):
		utils.ConflictResponse(c, err.Error())

	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}
