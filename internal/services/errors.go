// internal/services/errors.go
package services

import "errors"

// Caller-actionable failures surfaced to the HTTP layer. Handlers match
// these with errors.Is and map them to response codes; none of them is
// process-fatal.
var (
	// Attribute schema
	ErrDuplicateAttributeName  = errors.New("attribute name already exists in this store")
	ErrInvalidValueSet         = errors.New("attribute type requires at least one enumerated value")
	ErrDuplicateAttributeValue = errors.New("attribute value already exists for this attribute")
	ErrInvalidColorCode        = errors.New("color code must be a #RRGGBB hex triplet on a color attribute")
	ErrAttributeTypeImmutable  = errors.New("attribute type cannot change once values are recorded")
	ErrNotLeafEligible         = errors.New("product already has variants; regenerate variants instead of rebinding attributes")

	// Variant generation and resolution
	ErrNoVariationAxes     = errors.New("product has no variation-axis attributes")
	ErrTooManyCombinations = errors.New("variant combination count exceeds the configured ceiling")
	ErrNoMatchingVariant   = errors.New("no variant matches the selected attribute values")
	ErrVariantInactive     = errors.New("matching variant exists but is inactive")
	ErrAmbiguousSelection  = errors.New("selection matches more than one variant")
	ErrIncompleteSelection = errors.New("selection does not cover all variation axes")
	ErrDuplicateSelection  = errors.New("a variant with this attribute-value set already exists")

	// Stock
	ErrInsufficientStock = errors.New("insufficient stock for requested quantity")

	// Tenancy
	ErrUnknownDomain     = errors.New("no active store is bound to this domain")
	ErrDomainTaken       = errors.New("domain is already bound to a store")
	ErrLastPrimaryDomain = errors.New("cannot remove a store's primary domain while aliases exist")

	// Generic
	ErrNotFound      = errors.New("record not found")
	ErrNotAuthorized = errors.New("not authorized for this resource")
)
