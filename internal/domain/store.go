package domain

import "time"

// Store is a bookable location.
type Store struct {
	ID          string
	StoreName   string
	Location    string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
