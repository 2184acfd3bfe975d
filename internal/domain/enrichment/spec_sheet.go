package enrichment

import (
	"strings"
	"unicode/utf8"

	"github.com/enrichment/backend/internal/domain/catalog"
)

// Highlight selection limits
const (
	MaxHighlights           = 5
	MaxHighlightValueLength = 60
)

// PreferredHighlightGroups are scanned in this order when picking highlights
var PreferredHighlightGroups = []string{
	"Display", "Performance", "Processor", "Graphics", "Memory",
	"Storage", "Ports & interfaces", "Connectivity", "Battery", "Design",
}

// HighlightDenylist holds name fragments that mark noise specifications
var HighlightDenylist = []string{"Certification", "Harmonized System", "EPREL", "Compliance"}

// SpecGroup is a specification group in first-seen order
type SpecGroup struct {
	Name  string
	Specs []catalog.Specification
}

// SpecRow is one rendered name/value pair
type SpecRow struct {
	Name  string
	Value string
}

// SpecSection is one collapsible block of the full specification sheet
type SpecSection struct {
	Title    string
	Expanded bool
	Rows     []SpecRow
}

// SpecSheet is the markup-free form of a formatted specification list
type SpecSheet struct {
	Highlights []SpecRow
	Sections   []SpecSection
	// Skipped holds specifications left out for an empty name or value
	Skipped []catalog.Specification
}

// HasHighlights reports whether any highlight was selected
func (s SpecSheet) HasHighlights() bool {
	return len(s.Highlights) > 0
}

// GroupSpecifications groups specifications by group name, keeping first-seen group order
// and the input order within each group.
func GroupSpecifications(specs []catalog.Specification) []SpecGroup {
	var groups []SpecGroup
	index := make(map[string]int)
	for _, spec := range specs {
		name := spec.GroupName()
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, SpecGroup{Name: name})
		}
		groups[i].Specs = append(groups[i].Specs, spec)
	}
	return groups
}

// SelectHighlights picks up to MaxHighlights short specifications from the preferred groups
func SelectHighlights(groups []SpecGroup) []SpecRow {
	byName := make(map[string]SpecGroup, len(groups))
	for _, g := range groups {
		byName[g.Name] = g
	}

	var out []SpecRow
	for _, preferred := range PreferredHighlightGroups {
		for _, spec := range byName[preferred].Specs {
			name := strings.TrimSpace(spec.Name)
			value := strings.TrimSpace(spec.Value)
			if name == "" || value == "" || utf8.RuneCountInString(value) > MaxHighlightValueLength {
				continue
			}
			if isDenylisted(name) {
				continue
			}
			out = append(out, SpecRow{Name: name, Value: value})
			if len(out) >= MaxHighlights {
				return out
			}
		}
	}
	return out
}

func isDenylisted(name string) bool {
	lower := strings.ToLower(name)
	for _, term := range HighlightDenylist {
		if strings.Contains(lower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// BuildSpecSheet formats a flat specification list into highlights and grouped sections.
// The output depends only on the input order.
func BuildSpecSheet(specs []catalog.Specification) SpecSheet {
	groups := GroupSpecifications(specs)
	sheet := SpecSheet{Highlights: SelectHighlights(groups)}
	for i, g := range groups {
		section := SpecSection{Title: g.Name, Expanded: i == 0}
		for _, spec := range g.Specs {
			if strings.TrimSpace(spec.Name) == "" || strings.TrimSpace(spec.Value) == "" {
				sheet.Skipped = append(sheet.Skipped, spec)
				continue
			}
			section.Rows = append(section.Rows, SpecRow{Name: spec.Name, Value: spec.DisplayValue()})
		}
		sheet.Sections = append(sheet.Sections, section)
	}
	return sheet
}

// SpecRenderer turns a specification sheet into markup
type SpecRenderer interface {
	// RenderHighlights returns an empty string when there are no highlights
	RenderHighlights(rows []SpecRow) (string, error)
	// RenderSections renders the collapsible full sheet
	RenderSections(sections []SpecSection) (string, error)
	// RenderGrouped renders the plain grouped tables, or a placeholder when empty
	RenderGrouped(groups []SpecGroup) (string, error)
}

// BuildAttributeGroups turns specifications into managed attribute groups.
// Values read "Name: Value" and repeated values within a group are merged.
func BuildAttributeGroups(specs []catalog.Specification) []AttributeGroup {
	var out []AttributeGroup
	for _, g := range GroupSpecifications(specs) {
		group := AttributeGroup{Name: catalog.ManagedAttributeName(g.Name)}
		seen := make(map[string]bool)
		for _, spec := range g.Specs {
			name := strings.TrimSpace(spec.Name)
			value := strings.TrimSpace(spec.DisplayValue())
			if name == "" || value == "" {
				continue
			}
			v := name + ": " + value
			if seen[v] {
				continue
			}
			seen[v] = true
			group.Values = append(group.Values, v)
		}
		if len(group.Values) > 0 {
			out = append(out, group)
		}
	}
	return out
}
