package enrichment

import (
	"github.com/enrichment/backend/internal/domain/catalog"
)

// FailureCause classifies why a connector call failed
type FailureCause string

const (
	CauseNone            FailureCause = ""
	CauseEmptyBarcode    FailureCause = "empty_barcode"
	CauseTimeout         FailureCause = "timeout"
	CauseConnection      FailureCause = "connection"
	CauseUnauthorized    FailureCause = "unauthorized"
	CauseNotFound        FailureCause = "not_found"
	CauseBrandRestricted FailureCause = "brand_restricted"
	CauseInvalidResponse FailureCause = "invalid_response"
	CauseHTTPStatus      FailureCause = "http_status"
	CauseNotConfigured   FailureCause = "not_configured"
	CauseUnknown         FailureCause = "unknown"
)

// Transient reports whether a retry could reasonably succeed
func (c FailureCause) Transient() bool {
	return c == CauseTimeout || c == CauseConnection
}

// ImageRef points to an image offered by a source
type ImageRef struct {
	URL   string
	Size  int64
	Type  string
	Title string
}

// ProductData is the normalized shape every connector produces
type ProductData struct {
	Source      SourceID
	SourceID    string
	Name        string
	Brand       string
	Category    string
	MPN         string
	Quality     string
	Description string
	ImageURL    string
	Images      []ImageRef
	// Specifications keep upstream order; duplicates are not removed
	Specifications []catalog.Specification
	Features       []string
}

// Result is the outcome of one connector call
type Result struct {
	Success bool
	Data    *ProductData
	Error   string
	Cause   FailureCause
}

// Succeeded wraps normalized data in a successful result
func Succeeded(data *ProductData) Result {
	return Result{Success: true, Data: data}
}

// Failed builds a failed result with a human-readable message
func Failed(cause FailureCause, message string) Result {
	return Result{Success: false, Error: message, Cause: cause}
}
