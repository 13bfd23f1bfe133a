package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/tablebook/reservation-service/internal/auth"
	"github.com/tablebook/reservation-service/internal/domain"
	"github.com/tablebook/reservation-service/internal/events"
	"github.com/tablebook/reservation-service/internal/repository"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

// MinReservationLead is how far ahead a reservation must be booked.
const MinReservationLead = 10 * time.Minute

// ReservationService books members into stores.
type ReservationService struct {
	reservations repository.ReservationRepository
	members      repository.MemberRepository
	stores       repository.StoreRepository
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	now          func() time.Time
}

// ReservationDependencies encapsulates collaborators for the reservation service.
type ReservationDependencies struct {
	Reservations repository.ReservationRepository
	Members      repository.MemberRepository
	Stores       repository.StoreRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Now          func() time.Time
}

// NewReservationService builds the service.
func NewReservationService(deps ReservationDependencies) *ReservationService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationService{
		reservations: deps.Reservations,
		members:      deps.Members,
		stores:       deps.Stores,
		dispatcher:   deps.Dispatcher,
		logger:       logger,
		now:          now,
	}
}

// Create books the calling member into storeID at reservedAt.
func (s *ReservationService) Create(ctx context.Context, actor *auth.Principal, storeID string, reservedAt time.Time) (*domain.Reservation, error) {
	member, err := s.actorMember(ctx, actor)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(storeID); err != nil {
		return nil, apperrors.NewNotFound("store")
	}
	if _, err := s.stores.GetByID(ctx, storeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("store")
		}
		return nil, err
	}
	if err := s.checkSlot(ctx, storeID, reservedAt); err != nil {
		return nil, err
	}

	reservation := &domain.Reservation{
		MemberID:      member.ID,
		StoreID:       storeID,
		Status:        domain.ReservationStatusStandby,
		ArrivalStatus: domain.ArrivalStatusReady,
		ReservedAt:    reservedAt.UTC(),
	}
	if err := s.reservations.Create(ctx, reservation); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("time slot already reserved")
		}
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventReservationCreated, reservation.ID, actor.Subject,
		events.ReservationCreatedPayload{StoreID: storeID, MemberID: member.ID, ReservedAt: reservation.ReservedAt}))
	return reservation, nil
}

// Get returns a reservation. USER principals only see their own.
func (s *ReservationService) Get(ctx context.Context, actor *auth.Principal, id string) (*domain.Reservation, error) {
	reservation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisible(ctx, actor, reservation.MemberID); err != nil {
		return nil, err
	}
	return reservation, nil
}

// ListByMember returns a member's reservations. USER principals only see their own.
func (s *ReservationService) ListByMember(ctx context.Context, actor *auth.Principal, memberID string) ([]domain.Reservation, error) {
	if _, err := uuid.Parse(memberID); err != nil {
		return nil, apperrors.NewNotFound("member")
	}
	if err := s.checkVisible(ctx, actor, memberID); err != nil {
		return nil, err
	}
	return s.reservations.ListByMember(ctx, memberID)
}

// Reschedule moves the caller's own reservation while it is still STANDBY.
func (s *ReservationService) Reschedule(ctx context.Context, actor *auth.Principal, id string, reservedAt time.Time) (*domain.Reservation, error) {
	reservation, err := s.ownReservation(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if reservation.Status != domain.ReservationStatusStandby {
		return nil, apperrors.NewConflict("reservation can no longer be changed")
	}
	if !reservation.ReservedAt.Equal(reservedAt) {
		if err := s.checkSlot(ctx, reservation.StoreID, reservedAt); err != nil {
			return nil, err
		}
	}

	reservation.ReservedAt = reservedAt.UTC()
	if err := s.save(ctx, reservation, domain.ReservationStatusStandby, "reservation can no longer be changed"); err != nil {
		return nil, err
	}
	return reservation, nil
}

// Cancel deletes the caller's own reservation.
func (s *ReservationService) Cancel(ctx context.Context, actor *auth.Principal, id string) error {
	reservation, err := s.ownReservation(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.reservations.Delete(ctx, reservation.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("reservation")
		}
		return err
	}
	return nil
}

// Decide approves or rejects a STANDBY reservation.
func (s *ReservationService) Decide(ctx context.Context, actor *auth.Principal, id string, status domain.ReservationStatus) (*domain.Reservation, error) {
	if status != domain.ReservationStatusApproved && status != domain.ReservationStatusRejected {
		return nil, apperrors.NewValidationError("status must be APPROVED or REJECTED")
	}
	reservation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.Status != domain.ReservationStatusStandby {
		return nil, apperrors.NewConflict("reservation already decided")
	}

	old := reservation.Status
	reservation.Status = status
	if err := s.save(ctx, reservation, old, "reservation already decided"); err != nil {
		return nil, err
	}

	actorID := ""
	if actor != nil {
		actorID = actor.Subject
	}
	s.publish(ctx, events.NewEvent(events.EventReservationStatusChanged, reservation.ID, actorID,
		events.ReservationStatusChangedPayload{OldStatus: old, NewStatus: status}))
	return reservation, nil
}

func (s *ReservationService) checkSlot(ctx context.Context, storeID string, reservedAt time.Time) error {
	now := s.now()
	if reservedAt.Before(now) {
		return apperrors.NewValidationError("reservation time has already passed")
	}
	if now.Add(MinReservationLead).After(reservedAt) {
		return apperrors.NewValidationError("reservations must be made at least 10 minutes in advance")
	}
	taken, err := s.reservations.ExistsAt(ctx, storeID, reservedAt.UTC())
	if err != nil {
		return err
	}
	if taken {
		return apperrors.NewConflict("time slot already reserved")
	}
	return nil
}

// save persists reservation only if it still has status expected, so of two
// concurrent writers exactly one wins and the other gets CONFLICT.
func (s *ReservationService) save(ctx context.Context, reservation *domain.Reservation, expected domain.ReservationStatus, conflict string) error {
	err := s.reservations.Update(ctx, reservation, expected)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict("time slot already reserved")
	case errors.Is(err, pgx.ErrNoRows):
		if _, loadErr := s.load(ctx, reservation.ID); loadErr != nil {
			return loadErr
		}
		return apperrors.NewConflict(conflict)
	}
	return err
}

func (s *ReservationService) load(ctx context.Context, id string) (*domain.Reservation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound("reservation")
	}
	reservation, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("reservation")
		}
		return nil, err
	}
	return reservation, nil
}

func (s *ReservationService) ownReservation(ctx context.Context, actor *auth.Principal, id string) (*domain.Reservation, error) {
	member, err := s.actorMember(ctx, actor)
	if err != nil {
		return nil, err
	}
	reservation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.MemberID != member.ID {
		return nil, apperrors.NewForbidden("reservation belongs to another member")
	}
	return reservation, nil
}

// Managers see every member's reservations.
func (s *ReservationService) checkVisible(ctx context.Context, actor *auth.Principal, memberID string) error {
	if actor == nil {
		return apperrors.ErrUnauthenticated
	}
	if actor.Role == auth.RoleManager {
		return nil
	}
	member, err := s.actorMember(ctx, actor)
	if err != nil {
		return err
	}
	if member.ID != memberID {
		return apperrors.NewForbidden("reservation belongs to another member")
	}
	return nil
}

func (s *ReservationService) actorMember(ctx context.Context, actor *auth.Principal) (*domain.Member, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	member, err := s.members.GetByUsername(ctx, actor.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPrincipalNotFound
		}
		return nil, err
	}
	return member, nil
}

func (s *ReservationService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
