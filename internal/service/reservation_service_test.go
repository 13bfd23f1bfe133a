package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablebook/reservation-service/internal/auth"
	"github.com/tablebook/reservation-service/internal/domain"
	"github.com/tablebook/reservation-service/internal/events"
	"github.com/tablebook/reservation-service/internal/repository/repotest"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

func codeOf(err error) string {
	return apperrors.ToDomainError(err).Code
}

func TestReservationCreate(t *testing.T) {
	h := newHarness(t, nil)
	alice, principal := h.signUp(t, "alice", domain.MemberTypeUser)
	store := h.registerStore(t, "Cafe")
	at := testNow.Add(time.Hour)

	reservation, err := h.reservation.Create(context.Background(), principal, store.ID, at)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, reservation.MemberID)
	assert.Equal(t, store.ID, reservation.StoreID)
	assert.Equal(t, domain.ReservationStatusStandby, reservation.Status)
	assert.Equal(t, domain.ArrivalStatusReady, reservation.ArrivalStatus)
	assert.True(t, at.Equal(reservation.ReservedAt))

	last := h.published[len(h.published)-1]
	assert.Equal(t, events.EventReservationCreated, last.Type)
	assert.Equal(t, reservation.ID, last.SubjectID)
}

func TestReservationCreate_TimeRules(t *testing.T) {
	h := newHarness(t, nil)
	_, principal := h.signUp(t, "alice", domain.MemberTypeUser)
	store := h.registerStore(t, "Cafe")

	tests := []struct {
		name string
		at   time.Time
		code string
	}{
		{"in the past", testNow.Add(-time.Minute), apperrors.CodeValidationFailed},
		{"under lead time", testNow.Add(MinReservationLead - time.Second), apperrors.CodeValidationFailed},
		{"exactly lead time", testNow.Add(MinReservationLead), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.reservation.Create(context.Background(), principal, store.ID, tt.at)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.code, codeOf(err))
		})
	}
}

func TestReservationCreate_SlotConflict(t *testing.T) {
	h := newHarness(t, nil)
	_, alice := h.signUp(t, "alice", domain.MemberTypeUser)
	_, bob := h.signUp(t, "bob", domain.MemberTypeUser)
	store := h.registerStore(t, "Cafe")
	other := h.registerStore(t, "Bakery")
	at := testNow.Add(2 * time.Hour)

	_, err := h.reservation.Create(context.Background(), alice, store.ID, at)
	require.NoError(t, err)

	_, err = h.reservation.Create(context.Background(), bob, store.ID, at)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, codeOf(err))

	_, err = h.reservation.Create(context.Background(), bob, other.ID, at)
	assert.NoError(t, err)
}

func TestReservationCreate_UnknownStore(t *testing.T) {
	h := newHarness(t, nil)
	_, principal := h.signUp(t, "alice", domain.MemberTypeUser)

	_, err := h.reservation.Create(context.Background(), principal, uuid.NewString(), testNow.Add(time.Hour))
	assert.Equal(t, apperrors.CodeNotFound, codeOf(err))

	_, err = h.reservation.Create(context.Background(), principal, "bogus", testNow.Add(time.Hour))
	assert.Equal(t, apperrors.CodeNotFound, codeOf(err))
}

func TestReservationCreate_DeletedMember(t *testing.T) {
	h := newHarness(t, nil)
	store := h.registerStore(t, "Cafe")
	ghost := &auth.Principal{Subject: "ghost", Role: auth.RoleUser}

	_, err := h.reservation.Create(context.Background(), ghost, store.ID, testNow.Add(time.Hour))
	assert.ErrorIs(t, err, apperrors.ErrPrincipalNotFound)
}

func TestReservationVisibility(t *testing.T) {
	h := newHarness(t, nil)
	alice, alicePrincipal := h.signUp(t, "alice", domain.MemberTypeUser)
	_, bob := h.signUp(t, "bob", domain.MemberTypeUser)
	_, manager := h.signUp(t, "boss", domain.MemberTypeManager)
	store := h.registerStore(t, "Cafe")

	reservation, err := h.reservation.Create(context.Background(), alicePrincipal, store.ID, testNow.Add(time.Hour))
	require.NoError(t, err)

	_, err = h.reservation.Get(context.Background(), bob, reservation.ID)
	assert.Equal(t, apperrors.CodeForbidden, codeOf(err))

	got, err := h.reservation.Get(context.Background(), manager, reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, reservation.ID, got.ID)

	list, err := h.reservation.ListByMember(context.Background(), alicePrincipal, alice.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = h.reservation.ListByMember(context.Background(), bob, alice.ID)
	assert.Equal(t, apperrors.CodeForbidden, codeOf(err))
}

func TestReservationReschedule(t *testing.T) {
	h := newHarness(t, nil)
	_, alice := h.signUp(t, "alice", domain.MemberTypeUser)
	_, bob := h.signUp(t, "bob", domain.MemberTypeUser)
	store := h.registerStore(t, "Cafe")

	first, err := h.reservation.Create(context.Background(), alice, store.ID, testNow.Add(time.Hour))
	require.NoError(t, err)
	_, err = h.reservation.Create(context.Background(), bob, store.ID, testNow.Add(2*time.Hour))
	require.NoError(t, err)

	_, err = h.reservation.Reschedule(context.Background(), bob, first.ID, testNow.Add(3*time.Hour))
	assert.Equal(t, apperrors.CodeForbidden, codeOf(err))

	_, err = h.reservation.Reschedule(context.Background(), alice, first.ID, testNow.Add(2*time.Hour))
	assert.Equal(t, apperrors.CodeConflict, codeOf(err))

	moved, err := h.reservation.Reschedule(context.Background(), alice, first.ID, testNow.Add(3*time.Hour))
	require.NoError(t, err)
	assert.True(t, testNow.Add(3*time.Hour).Equal(moved.ReservedAt))
}

func TestReservationDecide(t *testing.T) {
	h := newHarness(t, nil)
	_, alice := h.signUp(t, "alice", domain.MemberTypeUser)
	_, manager := h.signUp(t, "boss", domain.MemberTypeManager)
	store := h.registerStore(t, "Cafe")

	reservation, err := h.reservation.Create(context.Background(), alice, store.ID, testNow.Add(time.Hour))
	require.NoError(t, err)

	_, err = h.reservation.Decide(context.Background(), manager, reservation.ID, domain.ReservationStatusStandby)
	assert.Equal(t, apperrors.CodeValidationFailed, codeOf(err))

	decided, err := h.reservation.Decide(context.Background(), manager, reservation.ID, domain.ReservationStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusApproved, decided.Status)

	last := h.published[len(h.published)-1]
	assert.Equal(t, events.EventReservationStatusChanged, last.Type)
	assert.Equal(t, "boss", last.ActorID)
	assert.Equal(t, events.ReservationStatusChangedPayload{
		OldStatus: domain.ReservationStatusStandby,
		NewStatus: domain.ReservationStatusApproved,
	}, last.Payload)

	_, err = h.reservation.Decide(context.Background(), manager, reservation.ID, domain.ReservationStatusRejected)
	assert.Equal(t, apperrors.CodeConflict, codeOf(err))

	_, err = h.reservation.Reschedule(context.Background(), alice, reservation.ID, testNow.Add(4*time.Hour))
	assert.Equal(t, apperrors.CodeConflict, codeOf(err))
}

// staleReads serves a fixed earlier copy of one reservation, as a reader
// racing another writer would see it.
type staleReads struct {
	*repotest.Reservations
	snapshot domain.Reservation
}

func (r *staleReads) GetByID(_ context.Context, id string) (*domain.Reservation, error) {
	row := r.snapshot
	return &row, nil
}

func TestReservationDecide_LosesToEarlierDecision(t *testing.T) {
	h := newHarness(t, nil)
	_, alice := h.signUp(t, "alice", domain.MemberTypeUser)
	_, manager := h.signUp(t, "boss", domain.MemberTypeManager)
	store := h.registerStore(t, "Cafe")

	reservation, err := h.reservation.Create(context.Background(), alice, store.ID, testNow.Add(time.Hour))
	require.NoError(t, err)
	snapshot := *reservation

	_, err = h.reservation.Decide(context.Background(), manager, reservation.ID, domain.ReservationStatusApproved)
	require.NoError(t, err)

	late := NewReservationService(ReservationDependencies{
		Reservations: &staleReads{Reservations: h.reservations, snapshot: snapshot},
		Members:      h.members,
		Stores:       h.stores,
		Dispatcher:   h.dispatcher,
		Now:          func() time.Time { return testNow },
	})
	_, err = late.Decide(context.Background(), manager, reservation.ID, domain.ReservationStatusRejected)
	assert.Equal(t, apperrors.CodeConflict, codeOf(err))

	_, err = late.Reschedule(context.Background(), alice, reservation.ID, testNow.Add(2*time.Hour))
	assert.Equal(t, apperrors.CodeConflict, codeOf(err))

	stored, err := h.reservation.Get(context.Background(), manager, reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusApproved, stored.Status)
	assert.True(t, testNow.Add(time.Hour).Equal(stored.ReservedAt))
	assert.Equal(t, 1, h.countPublished(events.EventReservationStatusChanged))
}

func TestReservationDecide_ConcurrentManagers(t *testing.T) {
	h := newHarness(t, nil)
	_, alice := h.signUp(t, "alice", domain.MemberTypeUser)
	_, manager := h.signUp(t, "boss", domain.MemberTypeManager)
	store := h.registerStore(t, "Cafe")

	reservation, err := h.reservation.Create(context.Background(), alice, store.ID, testNow.Add(time.Hour))
	require.NoError(t, err)

	const deciders = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < deciders; i++ {
		status := domain.ReservationStatusApproved
		if i%2 == 1 {
			status = domain.ReservationStatusRejected
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.reservation.Decide(context.Background(), manager, reservation.ID, status)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.Equal(t, apperrors.CodeConflict, codeOf(err))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, h.countPublished(events.EventReservationStatusChanged))
}

func TestReservationCancel(t *testing.T) {
	h := newHarness(t, nil)
	_, alice := h.signUp(t, "alice", domain.MemberTypeUser)
	_, bob := h.signUp(t, "bob", domain.MemberTypeUser)
	store := h.registerStore(t, "Cafe")

	reservation, err := h.reservation.Create(context.Background(), alice, store.ID, testNow.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, apperrors.CodeForbidden, codeOf(h.reservation.Cancel(context.Background(), bob, reservation.ID)))
	require.NoError(t, h.reservation.Cancel(context.Background(), alice, reservation.ID))

	_, err = h.reservation.Get(context.Background(), alice, reservation.ID)
	assert.Equal(t, apperrors.CodeNotFound, codeOf(err))
}
