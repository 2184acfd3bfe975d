package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// Enrichment error codes
const (
	ErrCodeNoBarcode             = "ERR_NO_BARCODE"
	ErrCodeNoSourcesConfigured   = "ERR_NO_SOURCES_CONFIGURED"
	ErrCodeNoProductsWithBarcode = "ERR_NO_PRODUCTS_WITH_BARCODE"
	ErrCodeUnknownField          = "ERR_UNKNOWN_FIELD"
	ErrCodeDuplicateFieldRule    = "ERR_DUPLICATE_FIELD_RULE"
	ErrCodeInvalidSyncType       = "ERR_INVALID_SYNC_TYPE"
	ErrCodeInvalidSetting        = "ERR_INVALID_SETTING"
	ErrCodeInvalidSource         = "ERR_INVALID_SOURCE"
	ErrCodeInvalidCategory       = "ERR_INVALID_CATEGORY"
	ErrCodeAutoSyncDisabled      = "ERR_AUTO_SYNC_DISABLED"
	ErrCodeRunInProgress         = "ERR_RUN_IN_PROGRESS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,

	// Enrichment
	ErrCodeNoBarcode:             http.StatusUnprocessableEntity,
	ErrCodeNoSourcesConfigured:   http.StatusUnprocessableEntity,
	ErrCodeNoProductsWithBarcode: http.StatusUnprocessableEntity,
	ErrCodeUnknownField:          http.StatusBadRequest,
	ErrCodeDuplicateFieldRule:    http.StatusConflict,
	ErrCodeInvalidSyncType:       http.StatusBadRequest,
	ErrCodeInvalidSetting:        http.StatusBadRequest,
	ErrCodeInvalidSource:         http.StatusBadRequest,
	ErrCodeInvalidCategory:       http.StatusBadRequest,
	ErrCodeAutoSyncDisabled:      http.StatusConflict,
	ErrCodeRunInProgress:         http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unlisted ERR_INVALID_* codes are input errors; anything else unknown is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "ERR_INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode converts a domain error code (e.g. "NOT_FOUND") to the
// ERR_ prefixed API form. Codes already in that form pass through.
func NormalizeErrorCode(code string) string {
	if code == "" {
		return ErrCodeUnknown
	}
	if strings.HasPrefix(code, "ERR_") {
		return code
	}
	return "ERR_" + code
}
