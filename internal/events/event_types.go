package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/tablebook/reservation-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMemberRegistered         EventType = "member_registered"
	EventReservationCreated       EventType = "reservation_created"
	EventReservationStatusChanged EventType = "reservation_status_changed"
	EventReviewPosted             EventType = "review_posted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps a fresh event with a random ID.
func NewEvent(eventType EventType, subjectID, actorID string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// MemberRegisteredPayload payload.
type MemberRegisteredPayload struct {
	Username   string            `json:"username"`
	MemberType domain.MemberType `json:"member_type"`
}

// ReservationCreatedPayload payload.
type ReservationCreatedPayload struct {
	StoreID    string    `json:"store_id"`
	MemberID   string    `json:"member_id"`
	ReservedAt time.Time `json:"reserved_at"`
}

// ReservationStatusChangedPayload payload.
type ReservationStatusChangedPayload struct {
	OldStatus domain.ReservationStatus `json:"old_status"`
	NewStatus domain.ReservationStatus `json:"new_status"`
}

// ReviewPostedPayload payload.
type ReviewPostedPayload struct {
	StoreID  string `json:"store_id"`
	MemberID string `json:"member_id"`
	Rating   int    `json:"rating"`
}
