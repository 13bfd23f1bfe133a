package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tablebook/reservation-service/internal/domain"
	"github.com/tablebook/reservation-service/internal/events"
)

func TestNotificationService_Deliver(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc := NewNotificationService(zap.New(core))

	event := events.NewEvent(events.EventReservationStatusChanged, "r-1", "boss",
		events.ReservationStatusChangedPayload{
			OldStatus: domain.ReservationStatusStandby,
			NewStatus: domain.ReservationStatusRejected,
		})
	require.NoError(t, svc.Deliver(context.Background(), event))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "reservation_status_changed", fields["event_type"])
	assert.Equal(t, "boss", fields["decided_by"])
	assert.Equal(t, "REJECTED", fields["new_status"])
}

func TestNotificationService_DeliverReview(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc := NewNotificationService(zap.New(core))

	event := events.NewEvent(events.EventReviewPosted, "rv-1", "alice",
		events.ReviewPostedPayload{StoreID: "s-1", MemberID: "m-1", Rating: 4})
	require.NoError(t, svc.Deliver(context.Background(), event))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "review_posted", fields["event_type"])
	assert.Equal(t, "s-1", fields["store_id"])
	assert.EqualValues(t, 4, fields["rating"])
	assert.Contains(t, NotificationTopics, events.EventReviewPosted)
}
