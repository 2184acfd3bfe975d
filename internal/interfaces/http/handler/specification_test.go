package handler

import (
	"net/http"
	"testing"

	appenrichment "github.com/enrichment/backend/internal/application/enrichment"
	"github.com/enrichment/backend/internal/domain/catalog"
	"github.com/enrichment/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSpecificationHandler_Get(t *testing.T) {
	id := uuid.New()
	lines := []appenrichment.SpecLine{
		{Index: 0, Group: "Display", Name: "Diagonal", Value: "27", Unit: "\""},
	}
	const rendered = `<table class="table table-sm"><tr><td>Diagonal</td><td>27 "</td></tr></table>`

	t.Run("json", func(t *testing.T) {
		specs := new(MockSpecificationManager)
		specs.On("RenderGrouped", mock.Anything, id).Return(rendered, nil)
		specs.On("Lines", mock.Anything, id).Return(lines, nil)
		h := NewSpecificationHandler(specs)

		c, w := newTestContext(http.MethodGet, "/", "")
		c.Params = gin.Params{{Key: "id", Value: id.String()}}
		h.Get(c)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeData[SpecificationsResponse](t, w)
		assert.Equal(t, rendered, resp.HTML)
		require.Len(t, resp.Lines, 1)
		assert.Equal(t, "Diagonal", resp.Lines[0].Name)
	})

	t.Run("html", func(t *testing.T) {
		specs := new(MockSpecificationManager)
		specs.On("RenderGrouped", mock.Anything, id).Return("<p>No specifications available.</p>", nil)
		h := NewSpecificationHandler(specs)

		c, w := newTestContext(http.MethodGet, "/?format=html", "")
		c.Params = gin.Params{{Key: "id", Value: id.String()}}
		h.Get(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), "No specifications available.")
		specs.AssertNotCalled(t, "Lines", mock.Anything, mock.Anything)
	})

	t.Run("unknown product", func(t *testing.T) {
		specs := new(MockSpecificationManager)
		specs.On("RenderGrouped", mock.Anything, id).Return("", shared.ErrNotFound)
		h := NewSpecificationHandler(specs)

		c, w := newTestContext(http.MethodGet, "/", "")
		c.Params = gin.Params{{Key: "id", Value: id.String()}}
		h.Get(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSpecificationHandler_Remove(t *testing.T) {
	id := uuid.New()

	t.Run("removes selected lines", func(t *testing.T) {
		specs := new(MockSpecificationManager)
		specs.On("Remove", mock.Anything, id, []int{0, 2}).
			Return([]appenrichment.SpecLine{{Index: 0, Group: "General", Name: "Colour", Value: "Black"}}, nil)
		h := NewSpecificationHandler(specs)

		c, w := newTestContext(http.MethodPost, "/", `{"indexes":[0,2]}`)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}
		h.Remove(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeData[[]appenrichment.SpecLine](t, w), 1)
	})

	t.Run("requires a selection", func(t *testing.T) {
		h := NewSpecificationHandler(new(MockSpecificationManager))

		c, w := newTestContext(http.MethodPost, "/", `{"indexes":[]}`)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}
		h.Remove(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("out of range index", func(t *testing.T) {
		specs := new(MockSpecificationManager)
		specs.On("Remove", mock.Anything, id, []int{9}).
			Return(nil, shared.NewDomainError("INVALID_INPUT", "Specification index 9 is out of range"))
		h := NewSpecificationHandler(specs)

		c, w := newTestContext(http.MethodPost, "/", `{"indexes":[9]}`)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}
		h.Remove(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeError(t, w).Message, "out of range")
	})
}

func TestMaintenanceHandler_CleanupAttributes(t *testing.T) {
	maintainer := new(MockAttributeMaintainer)
	maintainer.On("CleanupAttributes", mock.Anything).
		Return(catalog.AttributeCleanupResult{Attributes: 3, Values: 12, Lines: 40}, nil)
	h := NewMaintenanceHandler(maintainer)

	c, w := newTestContext(http.MethodPost, "/", "")
	h.CleanupAttributes(c)

	assert.Equal(t, http.StatusOK, w.Code)
	result := decodeData[catalog.AttributeCleanupResult](t, w)
	assert.Equal(t, int64(3), result.Attributes)
	assert.Equal(t, int64(40), result.Lines)
}
