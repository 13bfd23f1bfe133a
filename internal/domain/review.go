package domain

import "time"

// Rating bounds and the content limit for a review.
const (
	RatingMin        = 1
	RatingMax        = 5
	ReviewContentMax = 200
)

// Review is a member's rating of a store. Username and StoreName are filled
// on reads for display.
type Review struct {
	ID        string
	MemberID  string
	StoreID   string
	Content   string
	Rating    int
	Username  string
	StoreName string
	CreatedAt time.Time
	UpdatedAt time.Time
}
