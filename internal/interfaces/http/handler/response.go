package handler

import "github.com/enrichment/backend/internal/interfaces/http/dto"

// APIResponse is the typed form of dto.Response, used to decode bodies
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// CountData represents count data in response
type CountData struct {
	Count int64 `json:"count"`
}

