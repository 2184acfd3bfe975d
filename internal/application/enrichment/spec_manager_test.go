package enrichment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enrichment/backend/internal/domain/catalog"
	"github.com/enrichment/backend/internal/domain/shared"
	"github.com/enrichment/backend/internal/infrastructure/specrender"
)

func specEntry(t *testing.T) *catalog.Product {
	t.Helper()
	p := newTestEntry(t, "Monitor")
	p.Specifications = []catalog.Specification{
		{Group: "Display", Name: "Diagonal", Value: "27", Unit: "\""},
		{Name: "Colour", Value: "Black"},
		{Group: "Power", Name: "Consumption", Value: "30", Unit: "W"},
	}
	return p
}

func TestSpecManager_Lines(t *testing.T) {
	p := specEntry(t)
	m := NewSpecManager(newMemoryEntries(p), specrender.New())

	lines, err := m.Lines(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, SpecLine{Index: 1, Group: "General", Name: "Colour", Value: "Black"}, lines[1])

	_, err = m.Lines(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSpecManager_Remove(t *testing.T) {
	p := specEntry(t)
	entries := newMemoryEntries(p)
	m := NewSpecManager(entries, specrender.New())

	lines, err := m.Remove(context.Background(), p.ID, []int{0, 2, 0})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Colour", lines[0].Name)
	assert.Equal(t, 0, lines[0].Index)
	assert.Len(t, entries.get(p.ID).Specifications, 1)

	_, err = m.Remove(context.Background(), p.ID, []int{5})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = m.Remove(context.Background(), p.ID, nil)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Len(t, entries.get(p.ID).Specifications, 1)
}

func TestSpecManager_RenderGrouped(t *testing.T) {
	p := specEntry(t)
	empty := newTestEntry(t, "Empty")
	m := NewSpecManager(newMemoryEntries(p, empty), specrender.New())

	html, err := m.RenderGrouped(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Contains(t, html, "30 W")
	assert.Contains(t, html, "General")

	html, err = m.RenderGrouped(context.Background(), empty.ID)
	require.NoError(t, err)
	assert.Contains(t, html, specrender.EmptyPlaceholder)
}
