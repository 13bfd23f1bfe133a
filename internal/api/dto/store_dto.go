package dto

import (
	"unicode/utf8"

	"github.com/tablebook/reservation-service/internal/domain"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

// StoreRequest payload for registering or editing a store.
type StoreRequest struct {
	StoreName   string `json:"storeName"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// Validate checks field constraints.
func (r StoreRequest) Validate() error {
	if n := utf8.RuneCountInString(r.StoreName); n < 1 || n > 50 {
		return apperrors.NewValidationError("storeName must be 1 to 50 characters")
	}
	if n := utf8.RuneCountInString(r.Location); n < 1 || n > 50 {
		return apperrors.NewValidationError("location must be 1 to 50 characters")
	}
	if utf8.RuneCountInString(r.Description) > 100 {
		return apperrors.NewValidationError("description must be at most 100 characters")
	}
	return nil
}

// StoreResponse is the public view of a store.
type StoreResponse struct {
	ID          string `json:"id"`
	StoreName   string `json:"storeName"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// NewStoreResponse maps a store to its public view.
func NewStoreResponse(s *domain.Store) StoreResponse {
	return StoreResponse{
		ID:          s.ID,
		StoreName:   s.StoreName,
		Location:    s.Location,
		Description: s.Description,
	}
}
