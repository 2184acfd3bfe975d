package handler

import (
	"fmt"
	"net/http"
	"testing"

	appenrichment "github.com/enrichment/backend/internal/application/enrichment"
	"github.com/enrichment/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCategoryMappingHandler_List(t *testing.T) {
	mappings := new(MockCategoryMappingAdmin)
	mappings.On("List", mock.Anything).Return([]appenrichment.MappingView{
		{ID: uuid.New(), ExternalCategory: "Monitors", GoogleCategoryPath: "Electronics > Computers > Monitors", ProductCount: 4},
	}, nil)
	h := NewCategoryMappingHandler(mappings)

	c, w := newTestContext(http.MethodGet, "/", "")
	h.List(c)

	views := decodeData[[]appenrichment.MappingView](t, w)
	require.Len(t, views, 1)
	assert.Equal(t, int64(4), views[0].ProductCount)
}

func TestCategoryMappingHandler_Update(t *testing.T) {
	id := uuid.New()
	publicID := uuid.New()

	t.Run("maps optional category ids", func(t *testing.T) {
		mappings := new(MockCategoryMappingAdmin)
		mappings.On("Update", mock.Anything, id, appenrichment.UpdateMappingInput{
			GoogleCategoryPath: "Electronics > Monitors",
			PublicCategoryID:   &publicID,
			AutoPublish:        true,
		}).Return(&appenrichment.MappingView{ID: id, AutoPublish: true}, nil)
		h := NewCategoryMappingHandler(mappings)

		body := fmt.Sprintf(`{"google_category_path":"Electronics > Monitors","public_category_id":"%s","auto_publish":true}`, publicID)
		c, w := newTestContext(http.MethodPut, "/", body)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}
		h.Update(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decodeData[appenrichment.MappingView](t, w).AutoPublish)
		mappings.AssertExpectations(t)
	})

	t.Run("wrong category kind", func(t *testing.T) {
		mappings := new(MockCategoryMappingAdmin)
		mappings.On("Update", mock.Anything, id, mock.Anything).
			Return(nil, shared.NewDomainError("INVALID_CATEGORY_KIND", "Category is not a public category"))
		h := NewCategoryMappingHandler(mappings)

		body := fmt.Sprintf(`{"public_category_id":"%s"}`, publicID)
		c, w := newTestContext(http.MethodPut, "/", body)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}
		h.Update(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ERR_INVALID_CATEGORY_KIND", decodeError(t, w).Code)
	})

	t.Run("rejects malformed category id", func(t *testing.T) {
		h := NewCategoryMappingHandler(new(MockCategoryMappingAdmin))

		c, w := newTestContext(http.MethodPut, "/", `{"internal_category_id":"abc"}`)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}
		h.Update(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCategoryMappingHandler_Apply(t *testing.T) {
	id := uuid.New()
	mappings := new(MockCategoryMappingAdmin)
	mappings.On("ApplyToProducts", mock.Anything, id).Return(int64(7), nil)
	h := NewCategoryMappingHandler(mappings)

	c, w := newTestContext(http.MethodPost, "/", "")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	h.Apply(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(7), decodeData[CountData](t, w).Count)
}
