package catalog

// DefaultSpecificationGroup is used for specifications that arrive without a group
const DefaultSpecificationGroup = "General"

// Specification is a single technical property of a product
type Specification struct {
	Group string `json:"group"`
	Name  string `json:"name"`
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// GroupName returns the group, falling back to the default bucket
func (s Specification) GroupName() string {
	if s.Group == "" {
		return DefaultSpecificationGroup
	}
	return s.Group
}

// DisplayValue joins value and unit with a space when a unit is present
func (s Specification) DisplayValue() string {
	if s.Unit == "" {
		return s.Value
	}
	return s.Value + " " + s.Unit
}
