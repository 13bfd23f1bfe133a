package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/tablebook/reservation-service/internal/events"
)

// NotificationTopics lists the events members and store managers are told about.
var NotificationTopics = []events.EventType{
	events.EventMemberRegistered,
	events.EventReservationCreated,
	events.EventReservationStatusChanged,
	events.EventReviewPosted,
}

// NotificationService turns domain events into member-facing notifications.
// Delivery is log-only until an outbound channel exists.
type NotificationService struct {
	logger *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{logger: logger.Named("notifications")}
}

// Deliver emits the notification for a single event.
func (n *NotificationService) Deliver(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("subject_id", event.SubjectID),
	}
	switch payload := event.Payload.(type) {
	case events.MemberRegisteredPayload:
		fields = append(fields,
			zap.String("member_name", payload.Username),
			zap.String("member_type", string(payload.MemberType)))
	case events.ReservationCreatedPayload:
		fields = append(fields,
			zap.String("store_id", payload.StoreID),
			zap.String("member_id", payload.MemberID),
			zap.Time("reserved_at", payload.ReservedAt))
	case events.ReservationStatusChangedPayload:
		fields = append(fields,
			zap.String("decided_by", event.ActorID),
			zap.String("old_status", string(payload.OldStatus)),
			zap.String("new_status", string(payload.NewStatus)))
	case events.ReviewPostedPayload:
		fields = append(fields,
			zap.String("store_id", payload.StoreID),
			zap.String("member_id", payload.MemberID),
			zap.Int("rating", payload.Rating))
	default:
		fields = append(fields, zap.Any("payload", event.Payload))
	}
	n.logger.Info("notification sent", fields...)
	return nil
}
