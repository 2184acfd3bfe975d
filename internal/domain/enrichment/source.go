package enrichment

import (
	"context"

	"github.com/enrichment/backend/internal/domain/shared"
)

// SourceID identifies an external data source
type SourceID string

const (
	SourceBarcodeLookup SourceID = "barcodelookup"
	SourceIcecat        SourceID = "icecat"
)

// AllSources lists every known source
func AllSources() []SourceID {
	return []SourceID{SourceBarcodeLookup, SourceIcecat}
}

// IsValid checks if the source is known
func (s SourceID) IsValid() bool {
	return s == SourceBarcodeLookup || s == SourceIcecat
}

// String returns the string value
func (s SourceID) String() string {
	return string(s)
}

// ParseSourceID converts a string to a known source
func ParseSourceID(s string) (SourceID, error) {
	id := SourceID(s)
	if !id.IsValid() {
		return "", shared.NewDomainError("INVALID_SOURCE", "Unknown enrichment source: "+s)
	}
	return id, nil
}

// PriorityMode orders and restricts the enabled sources
type PriorityMode string

const (
	PriorityBarcodeLookupFirst PriorityMode = "barcodelookup_first"
	PriorityIcecatFirst        PriorityMode = "icecat_first"
	PriorityBarcodeLookupOnly  PriorityMode = "barcodelookup_only"
	PriorityIcecatOnly         PriorityMode = "icecat_only"
)

// IsValid checks if the mode is valid
func (m PriorityMode) IsValid() bool {
	switch m {
	case PriorityBarcodeLookupFirst, PriorityIcecatFirst, PriorityBarcodeLookupOnly, PriorityIcecatOnly:
		return true
	}
	return false
}

// EnabledSources returns the sources to query, in priority order.
// A source that is disabled is never returned, whatever the mode.
func EnabledSources(barcodeLookupEnabled, icecatEnabled bool, mode PriorityMode) []SourceID {
	var order []SourceID
	switch mode {
	case PriorityBarcodeLookupFirst:
		order = []SourceID{SourceBarcodeLookup, SourceIcecat}
	case PriorityIcecatFirst:
		order = []SourceID{SourceIcecat, SourceBarcodeLookup}
	case PriorityBarcodeLookupOnly:
		order = []SourceID{SourceBarcodeLookup}
	case PriorityIcecatOnly:
		order = []SourceID{SourceIcecat}
	}

	enabled := map[SourceID]bool{
		SourceBarcodeLookup: barcodeLookupEnabled,
		SourceIcecat:        icecatEnabled,
	}
	sources := make([]SourceID, 0, len(order))
	for _, s := range order {
		if enabled[s] {
			sources = append(sources, s)
		}
	}
	return sources
}

// FetchOptions carries the per-run settings a connector needs
type FetchOptions struct {
	Language    string
	CatalogType string
}

// Connector translates a barcode into normalized product data using one external API.
// Upstream failures are reported in the Result and never as a Go error.
type Connector interface {
	Source() SourceID
	Fetch(ctx context.Context, barcode string, opts FetchOptions) Result
}
