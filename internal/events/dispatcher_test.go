package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_DeliversToAllSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got []string
	d.Subscribe(EventMemberRegistered, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.SubjectID)
		return errors.New("boom")
	})
	d.Subscribe(EventMemberRegistered, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.SubjectID)
		return nil
	})
	d.Subscribe(EventReservationCreated, func(context.Context, Event) error {
		t.Fatal("unexpected delivery")
		return nil
	})

	err := d.Publish(context.Background(), NewEvent(EventMemberRegistered, "m-1", "", nil))
	require.Error(t, err)
	assert.Equal(t, []string{"first:m-1", "second:m-1"}, got)
}

func TestNewEvent_AssignsIDs(t *testing.T) {
	a := NewEvent(EventReservationCreated, "r-1", "alice", ReservationCreatedPayload{StoreID: "s-1"})
	b := NewEvent(EventReservationCreated, "r-1", "alice", nil)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.Timestamp.IsZero())
}

func TestDispatcher_RecoversHandlerPanic(t *testing.T) {
	d := NewInMemoryDispatcher()
	delivered := false
	d.Subscribe(EventReservationCreated, func(context.Context, Event) error {
		panic("nil map")
	})
	d.Subscribe(EventReservationCreated, func(context.Context, Event) error {
		delivered = true
		return nil
	})

	err := d.Publish(context.Background(), NewEvent(EventReservationCreated, "r-1", "alice", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic: nil map")
	assert.True(t, delivered)
}

func TestDispatcher_NoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), NewEvent(EventMemberRegistered, "m-1", "", nil)))
}
