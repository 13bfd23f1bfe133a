package dto

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tablebook/reservation-service/internal/domain"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

// ReviewRegisterRequest payload for posting a review.
type ReviewRegisterRequest struct {
	MemberID string `json:"memberId,omitempty"`
	StoreID  string `json:"storeId"`
	Content  string `json:"content"`
	Rating   int    `json:"rating"`
}

// Validate checks field constraints.
func (r ReviewRegisterRequest) Validate() error {
	if r.StoreID == "" {
		return apperrors.NewValidationError("storeId is required")
	}
	return validateReviewBody(r.Content, r.Rating)
}

// ReviewUpdateRequest payload for editing a review.
type ReviewUpdateRequest struct {
	Content string `json:"content"`
	Rating  int    `json:"rating"`
}

// Validate checks field constraints.
func (r ReviewUpdateRequest) Validate() error {
	return validateReviewBody(r.Content, r.Rating)
}

func validateReviewBody(content string, rating int) error {
	if n := utf8.RuneCountInString(strings.TrimSpace(content)); n == 0 || n > domain.ReviewContentMax {
		return apperrors.NewValidationError("content must be 1 to 200 characters")
	}
	if rating < domain.RatingMin || rating > domain.RatingMax {
		return apperrors.NewValidationError("rating must be between 1 and 5")
	}
	return nil
}

// ReviewResponse is the public view of a review.
type ReviewResponse struct {
	ID        string    `json:"id"`
	MemberID  string    `json:"memberId"`
	StoreID   string    `json:"storeId"`
	Content   string    `json:"content"`
	Rating    int       `json:"rating"`
	Username  string    `json:"username"`
	StoreName string    `json:"storeName"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewReviewResponse maps a review to its public view.
func NewReviewResponse(r *domain.Review) ReviewResponse {
	return ReviewResponse{
		ID:        r.ID,
		MemberID:  r.MemberID,
		StoreID:   r.StoreID,
		Content:   r.Content,
		Rating:    r.Rating,
		Username:  r.Username,
		StoreName: r.StoreName,
		CreatedAt: r.CreatedAt,
	}
}
