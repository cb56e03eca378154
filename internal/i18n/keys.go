// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"
	KeyWarning = "warning"
	KeyInfo    = "info"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserNotFound       = "auth.user_not_found"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthEmailNotVerified   = "auth.email_not_verified"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthLogoutSuccess      = "auth.logout_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthPasswordReset      = "auth.password_reset"

	// User Management
	KeyUserProfileUpdated = "user.profile_updated"
	KeyUserNotFound       = "user.not_found"
	KeyUserSuspended      = "user.suspended"

	// Stores
	KeyStoreCreated       = "store.created"
	KeyStoreUpdated       = "store.updated"
	KeyStoreApproved      = "store.approved"
	KeyStoreDeactivated   = "store.deactivated"
	KeyStoreNotFound      = "store.not_found"
	KeyStoreUnknownDomain = "store.unknown_domain"
	KeyStoreDomainBound   = "store.domain_bound"
	KeyStoreDomainTaken   = "store.domain_taken"
	KeyStoreDomainRemoved = "store.domain_removed"
	KeyStorePrimaryDomain = "store.primary_domain_set"

	// Attributes
	KeyAttributeCreated        = "attribute.created"
	KeyAttributeUpdated        = "attribute.updated"
	KeyAttributeNotFound       = "attribute.not_found"
	KeyAttributeDuplicateName  = "attribute.duplicate_name"
	KeyAttributeInvalidValues  = "attribute.invalid_values"
	KeyAttributeDuplicateValue = "attribute.duplicate_value"
	KeyAttributeInvalidColor   = "attribute.invalid_color"
	KeyAttributeTypeLocked     = "attribute.type_locked"
	KeyAttributeValueAdded     = "attribute.value_added"
	KeyAttributeBound          = "attribute.bound"
	KeyAttributeNotLeaf        = "attribute.not_leaf_eligible"

	// Products
	KeyProductCreated  = "product.created"
	KeyProductUpdated  = "product.updated"
	KeyProductDeleted  = "product.deleted"
	KeyProductNotFound = "product.not_found"

	// Variants
	KeyVariantCreated           = "variant.created"
	KeyVariantGenerated         = "variant.generated"
	KeyVariantUpdated           = "variant.updated"
	KeyVariantNotFound          = "variant.not_found"
	KeyVariantNoAxes            = "variant.no_axes"
	KeyVariantTooMany           = "variant.too_many_combinations"
	KeyVariantNoMatch           = "variant.no_match"
	KeyVariantAmbiguous         = "variant.ambiguous_selection"
	KeyVariantInactive          = "variant.inactive"
	KeyVariantOutOfStock        = "variant.out_of_stock"
	KeyVariantInsufficientStock = "variant.insufficient_stock"

	// Orders
	KeyOrderPlaced    = "order.placed"
	KeyOrderCancelled = "order.cancelled"
	KeyOrderUpdated   = "order.updated"
	KeyOrderNotFound  = "order.not_found"

	// Admin
	KeyAdminActionSuccess   = "admin.action_success"
	KeyAdminAccessDenied    = "admin.access_denied"
	KeyOwnerAccessDenied    = "owner.access_denied"
	KeyAdminUserSuspended   = "admin.user_suspended"
	KeyAdminUserUnsuspended = "admin.user_unsuspended"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationTooShort = "validation.too_short"
	KeyValidationTooLong  = "validation.too_long"
	KeyValidationEmail    = "validation.invalid_email"
	KeyValidationPassword = "validation.invalid_password"

	// File Upload
	KeyFileUploadSuccess = "file.upload_success"
	KeyFileUploadFailed  = "file.upload_failed"
	KeyFileInvalidType   = "file.invalid_type"
	KeyFileTooLarge      = "file.too_large"
)
