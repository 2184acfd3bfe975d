package enrichment

import (
	"strings"
	"testing"

	"github.com/enrichment/backend/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spec(group, name, value string) catalog.Specification {
	return catalog.Specification{Group: group, Name: name, Value: value}
}

func TestGroupSpecifications(t *testing.T) {
	groups := GroupSpecifications([]catalog.Specification{
		spec("Memory", "RAM", "16 GB"),
		spec("Display", "Size", "27\""),
		spec("", "Colour", "Black"),
		spec("Memory", "Type", "DDR5"),
		spec("Memory", "Type", "DDR5"),
	})

	require.Len(t, groups, 3)
	assert.Equal(t, "Memory", groups[0].Name)
	assert.Equal(t, "Display", groups[1].Name)
	assert.Equal(t, catalog.DefaultSpecificationGroup, groups[2].Name)
	require.Len(t, groups[0].Specs, 3)
	assert.Equal(t, "RAM", groups[0].Specs[0].Name)
	assert.Equal(t, "Type", groups[0].Specs[2].Name)
}

func TestSelectHighlights(t *testing.T) {
	t.Run("caps at five in preferred group order", func(t *testing.T) {
		var specs []catalog.Specification
		// Declared in reverse so input order cannot explain the result
		for i := 7; i >= 0; i-- {
			g := PreferredHighlightGroups[i]
			specs = append(specs, spec(g, g+" A", "a"), spec(g, g+" B", "b"))
		}

		highlights := SelectHighlights(GroupSpecifications(specs))
		require.Len(t, highlights, MaxHighlights)
		assert.Equal(t, []SpecRow{
			{Name: "Display A", Value: "a"},
			{Name: "Display B", Value: "b"},
			{Name: "Performance A", Value: "a"},
			{Name: "Performance B", Value: "b"},
			{Name: "Processor A", Value: "a"},
		}, highlights)
	})

	t.Run("filters long values, denylisted names and empties", func(t *testing.T) {
		specs := []catalog.Specification{
			spec("Display", "Energy Certification", "A+"),
			spec("Display", "EPREL code", "12345"),
			spec("Display", "Long", strings.Repeat("x", MaxHighlightValueLength+1)),
			spec("Display", "Exact", strings.Repeat("y", MaxHighlightValueLength)),
			spec("Display", "", "value"),
			spec("Display", "Empty", "  "),
			spec("Warranty", "Years", "2"),
		}

		highlights := SelectHighlights(GroupSpecifications(specs))
		require.Len(t, highlights, 1)
		assert.Equal(t, "Exact", highlights[0].Name)
	})

	t.Run("no preferred groups yields none", func(t *testing.T) {
		highlights := SelectHighlights(GroupSpecifications([]catalog.Specification{spec("Warranty", "Years", "2")}))
		assert.Empty(t, highlights)
	})
}

func TestBuildSpecSheet(t *testing.T) {
	specs := []catalog.Specification{
		spec("Display", "Size", "27"),
		{Group: "Display", Name: "Brightness", Value: "350", Unit: "cd/m²"},
		spec("Ports", "HDMI", ""),
		spec("Ports", "USB-C", "Yes"),
		spec("General", "", "orphan"),
	}

	sheet := BuildSpecSheet(specs)

	require.Len(t, sheet.Sections, 3)
	assert.Equal(t, "Display", sheet.Sections[0].Title)
	assert.True(t, sheet.Sections[0].Expanded)
	assert.False(t, sheet.Sections[1].Expanded)
	assert.False(t, sheet.Sections[2].Expanded)
	assert.Equal(t, []SpecRow{{Name: "Size", Value: "27"}, {Name: "Brightness", Value: "350 cd/m²"}}, sheet.Sections[0].Rows)
	assert.Equal(t, []SpecRow{{Name: "USB-C", Value: "Yes"}}, sheet.Sections[1].Rows)
	assert.Empty(t, sheet.Sections[2].Rows)
	assert.Len(t, sheet.Skipped, 2)
	assert.True(t, sheet.HasHighlights())

	t.Run("deterministic for the same input", func(t *testing.T) {
		assert.Equal(t, sheet, BuildSpecSheet(specs))
	})

	t.Run("empty input", func(t *testing.T) {
		empty := BuildSpecSheet(nil)
		assert.Empty(t, empty.Sections)
		assert.False(t, empty.HasHighlights())
	})
}

func TestBuildAttributeGroups(t *testing.T) {
	groups := BuildAttributeGroups([]catalog.Specification{
		spec("Display", "Size", "27"),
		spec("Display", "Size", "27"),
		{Group: "Display", Name: "Brightness", Value: "350", Unit: "cd/m²"},
		spec("Ports", "", "x"),
	})

	require.Len(t, groups, 1)
	assert.Equal(t, "[Icecat] Display", groups[0].Name)
	assert.Equal(t, []string{"Size: 27", "Brightness: 350 cd/m²"}, groups[0].Values)
}
