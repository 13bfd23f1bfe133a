package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tablebook/reservation-service/internal/auth"
	"github.com/tablebook/reservation-service/internal/config"
	"github.com/tablebook/reservation-service/internal/domain"
	"github.com/tablebook/reservation-service/internal/events"
	"github.com/tablebook/reservation-service/internal/ratelimit"
	"github.com/tablebook/reservation-service/internal/repository/repotest"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type harness struct {
	members      *repotest.Members
	stores       *repotest.Stores
	reservations *repotest.Reservations
	reviews      *repotest.Reviews
	hasher       auth.PasswordHasher
	credentials  *CredentialStore
	tokens       *auth.TokenCodec
	dispatcher   events.Dispatcher
	mu           sync.Mutex
	published    []events.Event
	memberSvc    *MemberService
	storeSvc     *StoreService
	reservation  *ReservationService
	reviewSvc    *ReviewService
}

func newHarness(t *testing.T, limiter ratelimit.Limiter) *harness {
	t.Helper()
	h := &harness{
		members:      repotest.NewMembers(),
		stores:       repotest.NewStores(),
		reservations: repotest.NewReservations(),
		hasher:       auth.NewBcryptHasher(bcrypt.MinCost),
		dispatcher:   events.NewInMemoryDispatcher(),
	}
	h.reviews = repotest.NewReviews(h.members, h.stores)
	record := func(_ context.Context, event events.Event) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.published = append(h.published, event)
		return nil
	}
	h.dispatcher.Subscribe(events.EventMemberRegistered, record)
	h.dispatcher.Subscribe(events.EventReservationCreated, record)
	h.dispatcher.Subscribe(events.EventReservationStatusChanged, record)
	h.dispatcher.Subscribe(events.EventReviewPosted, record)

	var err error
	h.credentials, err = NewCredentialStore(h.members, h.hasher)
	require.NoError(t, err)
	h.tokens, err = auth.NewTokenCodec(config.NewSigningSecret("service-test-secret"),
		auth.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)

	h.memberSvc = NewMemberService(config.AuthConfig{LoginMaxAttempts: 3, LoginWindowSeconds: 60}, MemberDependencies{
		Members:     h.members,
		Credentials: h.credentials,
		Hasher:      h.hasher,
		Tokens:      h.tokens,
		Limiter:     limiter,
		Dispatcher:  h.dispatcher,
	})
	h.storeSvc = NewStoreService(h.stores)
	h.reservation = NewReservationService(ReservationDependencies{
		Reservations: h.reservations,
		Members:      h.members,
		Stores:       h.stores,
		Dispatcher:   h.dispatcher,
		Now:          func() time.Time { return testNow },
	})
	h.reviewSvc = NewReviewService(ReviewDependencies{
		Reviews:    h.reviews,
		Members:    h.members,
		Stores:     h.stores,
		Dispatcher: h.dispatcher,
	})
	return h
}

func (h *harness) signUp(t *testing.T, username string, memberType domain.MemberType) (*domain.Member, *auth.Principal) {
	t.Helper()
	member, err := h.memberSvc.SignUp(context.Background(), SignUpInput{
		Username:    username,
		Password:    "password1",
		PhoneNumber: "010-0000-0000",
		MemberType:  memberType,
	})
	require.NoError(t, err)
	return member, &auth.Principal{Subject: username, Role: auth.Role(memberType)}
}

func (h *harness) registerStore(t *testing.T, name string) *domain.Store {
	t.Helper()
	store, err := h.storeSvc.Register(context.Background(), StoreInput{StoreName: name, Location: "Seoul"})
	require.NoError(t, err)
	return store
}

func (h *harness) countPublished(eventType events.EventType) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, event := range h.published {
		if event.Type == eventType {
			n++
		}
	}
	return n
}
