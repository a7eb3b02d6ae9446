package http

import (
	"encoding/json"
	"net/http"
)

// PaginatedResponse wraps paginated data with metadata
type PaginatedResponse[T any] struct {
	Data       []T                `json:"data"`
	Pagination PaginationMetadata `json:"pagination"`
}

// PaginationMetadata contains pagination information
type PaginationMetadata struct {
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	TotalCount int64 `json:"totalCount"`
	HasMore    bool  `json:"hasMore"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The header has already been sent; an encode error cannot be reported.
	_ = json.NewEncoder(w).Encode(v)
}

// WritePaginated writes a paginated response
func WritePaginated[T any](w http.ResponseWriter, data []T, limit, offset int, totalCount int64) {
	hasMore := int64(offset+len(data)) < totalCount

	response := PaginatedResponse[T]{
		Data: data,
		Pagination: PaginationMetadata{
			Limit:      limit,
			Offset:     offset,
			TotalCount: totalCount,
			HasMore:    hasMore,
		},
	}

	WriteJSON(w, http.StatusOK, response)
}
