package dto

import (
	"time"

	"github.com/tablebook/reservation-service/internal/domain"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

// ReservationCreateRequest payload for booking.
type ReservationCreateRequest struct {
	StoreID             string    `json:"storeId"`
	ReservationDateTime time.Time `json:"reservationDateTime"`
}

// Validate checks field constraints.
func (r ReservationCreateRequest) Validate() error {
	if r.StoreID == "" {
		return apperrors.NewValidationError("storeId is required")
	}
	if r.ReservationDateTime.IsZero() {
		return apperrors.NewValidationError("reservationDateTime is required")
	}
	return nil
}

// ReservationUpdateRequest payload for rescheduling.
type ReservationUpdateRequest struct {
	ReservationDateTime time.Time `json:"reservationDateTime"`
}

// Validate checks field constraints.
func (r ReservationUpdateRequest) Validate() error {
	if r.ReservationDateTime.IsZero() {
		return apperrors.NewValidationError("reservationDateTime is required")
	}
	return nil
}

// ReservationStatusRequest payload for a manager decision.
type ReservationStatusRequest struct {
	Status domain.ReservationStatus `json:"status"`
}

// ReservationResponse is the public view of a reservation.
type ReservationResponse struct {
	ID                  string                   `json:"id"`
	MemberID            string                   `json:"memberId"`
	StoreID             string                   `json:"storeId"`
	ReservationStatus   domain.ReservationStatus `json:"reservationStatus"`
	ArrivalStatus       domain.ArrivalStatus     `json:"arrivalStatus"`
	ReservationDateTime time.Time                `json:"reservationDateTime"`
}

// NewReservationResponse maps a reservation to its public view.
func NewReservationResponse(r *domain.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:                  r.ID,
		MemberID:            r.MemberID,
		StoreID:             r.StoreID,
		ReservationStatus:   r.Status,
		ArrivalStatus:       r.ArrivalStatus,
		ReservationDateTime: r.ReservedAt,
	}
}
