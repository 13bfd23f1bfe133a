package domain

import "time"

// ReservationStatus tracks the store's decision on a reservation.
type ReservationStatus string

const (
	ReservationStatusStandby  ReservationStatus = "STANDBY"
	ReservationStatusApproved ReservationStatus = "APPROVED"
	ReservationStatusRejected ReservationStatus = "REJECTED"
)

// ArrivalStatus tracks whether the member showed up.
type ArrivalStatus string

const (
	ArrivalStatusReady   ArrivalStatus = "READY"
	ArrivalStatusArrived ArrivalStatus = "ARRIVED"
)

// Reservation books a member into a store at a point in time.
type Reservation struct {
	ID            string
	MemberID      string
	StoreID       string
	Status        ReservationStatus
	ArrivalStatus ArrivalStatus
	ReservedAt    time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
