package enrichment

import (
	"sort"
	"strings"
	"time"

	"github.com/enrichment/backend/internal/domain/catalog"
	"github.com/enrichment/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// FieldMappingRule governs which sources may write a field and whether they may overwrite it
type FieldMappingRule struct {
	ID             uuid.UUID
	Field          Field
	AllowedSources []SourceID
	AllowOverwrite bool
	Sequence       int
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewFieldMappingRule validates and creates a rule
func NewFieldMappingRule(field string, sources []SourceID, allowOverwrite bool) (*FieldMappingRule, error) {
	f, err := ParseField(field)
	if err != nil {
		return nil, err
	}
	allowed := make([]SourceID, 0, len(sources))
	seen := make(map[SourceID]bool, len(sources))
	for _, s := range sources {
		if !s.IsValid() {
			return nil, shared.NewDomainError("INVALID_SOURCE", "Unknown enrichment source: "+string(s))
		}
		if !seen[s] {
			seen[s] = true
			allowed = append(allowed, s)
		}
	}
	return &FieldMappingRule{
		ID:             uuid.New(),
		Field:          f,
		AllowedSources: allowed,
		AllowOverwrite: allowOverwrite,
		Sequence:       10,
	}, nil
}

// Allows reports whether the source is permitted for this field
func (r FieldMappingRule) Allows(s SourceID) bool {
	for _, allowed := range r.AllowedSources {
		if allowed == s {
			return true
		}
	}
	return false
}

// DefaultRules is the built-in rule set used when none are stored
func DefaultRules() []FieldMappingRule {
	both := []SourceID{SourceBarcodeLookup, SourceIcecat}
	return []FieldMappingRule{
		{Field: FieldName, AllowedSources: both, AllowOverwrite: false, Sequence: 10},
		{Field: FieldDescriptionSale, AllowedSources: []SourceID{SourceIcecat}, AllowOverwrite: true, Sequence: 20},
		{Field: FieldWebsiteDescription, AllowedSources: []SourceID{SourceIcecat}, AllowOverwrite: true, Sequence: 30},
		{Field: FieldImage, AllowedSources: both, AllowOverwrite: false, Sequence: 40},
	}
}

// RuleSet is an immutable lookup of rules by field
type RuleSet struct {
	rules map[Field]FieldMappingRule
}

// NewRuleSet indexes rules by field. An empty input yields the default rules.
func NewRuleSet(rules []FieldMappingRule) (RuleSet, error) {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	rs := RuleSet{rules: make(map[Field]FieldMappingRule, len(rules))}
	for _, r := range rules {
		if !r.Field.IsValid() {
			return RuleSet{}, shared.NewDomainError("UNKNOWN_FIELD", "Unknown destination field: "+string(r.Field))
		}
		if _, dup := rs.rules[r.Field]; dup {
			return RuleSet{}, shared.NewDomainError("DUPLICATE_FIELD_RULE", "More than one rule for field "+string(r.Field))
		}
		r.AllowedSources = append([]SourceID(nil), r.AllowedSources...)
		rs.rules[r.Field] = r
	}
	return rs, nil
}

// DefaultRuleSet returns the rule set built from DefaultRules
func DefaultRuleSet() RuleSet {
	rs, _ := NewRuleSet(nil)
	return rs
}

// Rule returns the rule for a field
func (rs RuleSet) Rule(f Field) (FieldMappingRule, bool) {
	r, ok := rs.rules[f]
	return r, ok
}

// Rules returns all rules ordered by sequence then field
func (rs RuleSet) Rules() []FieldMappingRule {
	out := make([]FieldMappingRule, 0, len(rs.rules))
	for _, r := range rs.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sequence != out[j].Sequence {
			return out[i].Sequence < out[j].Sequence
		}
		return out[i].Field < out[j].Field
	})
	return out
}

// CanWrite decides whether source may write field on the entry.
// Empty fields are always fillable by an allowed source; populated ones only when the rule allows overwrite.
func (rs RuleSet) CanWrite(entry *catalog.Product, f Field, source SourceID) bool {
	rule, ok := rs.rules[f]
	if !ok || !rule.Allows(source) {
		return false
	}
	if strings.TrimSpace(CurrentValue(entry, f)) == "" {
		return true
	}
	return rule.AllowOverwrite
}
