package utils

import "time"

// Application Constants
const (
	AppName    = "GreenCycle"
	AppVersion = "1.0.0"

	// Response statuses
	StatusSuccess = "success"
	StatusError   = "error"

	// Error messages
	ErrValidationFailed = "Validation failed"
	ErrInternalServer   = "Internal server error"
	ErrUnauthorized     = "Unauthorized access"
	ErrForbidden        = "Access forbidden"

	// Promo code generation
	StaticCodeSuffixLength     = 4
	RedemptionCodeSuffixLength = 6

	// Caching
	ActiveCatalogCacheTTL = 5 * time.Minute
	UserPointsCacheTTL    = time.Minute

	// Rate limiting
	DefaultRateLimit = 100
)
