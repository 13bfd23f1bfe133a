// Package repotest provides in-memory repositories for tests. They honor the
// same not-found and uniqueness contracts as the Postgres implementations.
package repotest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tablebook/reservation-service/internal/domain"
	"github.com/tablebook/reservation-service/internal/repository"
)

// Members is an in-memory repository.MemberRepository.
type Members struct {
	mu   sync.Mutex
	rows map[string]domain.Member
	// Err, when set, is returned from every call.
	Err error
}

// NewMembers returns an empty member repository.
func NewMembers() *Members {
	return &Members{rows: make(map[string]domain.Member)}
}

var _ repository.MemberRepository = (*Members)(nil)

func (r *Members) Create(_ context.Context, member *domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, row := range r.rows {
		if row.Username == member.Username {
			return repository.ErrDuplicate
		}
	}
	member.ID = uuid.NewString()
	member.CreatedAt = time.Now().UTC()
	member.UpdatedAt = member.CreatedAt
	r.rows[member.ID] = *member
	return nil
}

func (r *Members) Update(_ context.Context, member *domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.rows[member.ID]; !ok {
		return pgx.ErrNoRows
	}
	for id, row := range r.rows {
		if id != member.ID && row.Username == member.Username {
			return repository.ErrDuplicate
		}
	}
	member.UpdatedAt = time.Now().UTC()
	r.rows[member.ID] = *member
	return nil
}

func (r *Members) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.rows, id)
	return nil
}

func (r *Members) GetByID(_ context.Context, id string) (*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	row, ok := r.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &row, nil
}

func (r *Members) GetByUsername(_ context.Context, username string) (*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, row := range r.rows {
		if row.Username == username {
			row := row
			return &row, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *Members) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Stores is an in-memory repository.StoreRepository.
type Stores struct {
	mu   sync.Mutex
	rows map[string]domain.Store
}

// NewStores returns an empty store repository.
func NewStores() *Stores {
	return &Stores{rows: make(map[string]domain.Store)}
}

var _ repository.StoreRepository = (*Stores)(nil)

func (r *Stores) Create(_ context.Context, store *domain.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.StoreName == store.StoreName {
			return repository.ErrDuplicate
		}
	}
	store.ID = uuid.NewString()
	store.CreatedAt = time.Now().UTC()
	store.UpdatedAt = store.CreatedAt
	r.rows[store.ID] = *store
	return nil
}

func (r *Stores) Update(_ context.Context, store *domain.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[store.ID]; !ok {
		return pgx.ErrNoRows
	}
	for id, row := range r.rows {
		if id != store.ID && row.StoreName == store.StoreName {
			return repository.ErrDuplicate
		}
	}
	store.UpdatedAt = time.Now().UTC()
	r.rows[store.ID] = *store
	return nil
}

func (r *Stores) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.rows, id)
	return nil
}

func (r *Stores) GetByID(_ context.Context, id string) (*domain.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &row, nil
}

func (r *Stores) GetByName(_ context.Context, name string) (*domain.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.StoreName == name {
			row := row
			return &row, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// Reservations is an in-memory repository.ReservationRepository.
type Reservations struct {
	mu   sync.Mutex
	rows map[string]domain.Reservation
}

// NewReservations returns an empty reservation repository.
func NewReservations() *Reservations {
	return &Reservations{rows: make(map[string]domain.Reservation)}
}

var _ repository.ReservationRepository = (*Reservations)(nil)

func (r *Reservations) Create(_ context.Context, reservation *domain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slotTaken(reservation.StoreID, reservation.ReservedAt, "") {
		return repository.ErrDuplicate
	}
	reservation.ID = uuid.NewString()
	reservation.CreatedAt = time.Now().UTC()
	reservation.UpdatedAt = reservation.CreatedAt
	r.rows[reservation.ID] = *reservation
	return nil
}

func (r *Reservations) Update(_ context.Context, reservation *domain.Reservation, expected domain.ReservationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.rows[reservation.ID]
	if !ok || stored.Status != expected {
		return pgx.ErrNoRows
	}
	if r.slotTaken(reservation.StoreID, reservation.ReservedAt, reservation.ID) {
		return repository.ErrDuplicate
	}
	reservation.UpdatedAt = time.Now().UTC()
	r.rows[reservation.ID] = *reservation
	return nil
}

func (r *Reservations) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.rows, id)
	return nil
}

func (r *Reservations) GetByID(_ context.Context, id string) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &row, nil
}

func (r *Reservations) ListByMember(_ context.Context, memberID string) ([]domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Reservation{}
	for _, row := range r.rows {
		if row.MemberID == memberID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReservedAt.Before(out[j].ReservedAt) })
	return out, nil
}

func (r *Reservations) ExistsAt(_ context.Context, storeID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slotTaken(storeID, at, ""), nil
}

func (r *Reservations) slotTaken(storeID string, at time.Time, except string) bool {
	for id, row := range r.rows {
		if id != except && row.StoreID == storeID && row.ReservedAt.Equal(at) {
			return true
		}
	}
	return false
}

// Reviews is an in-memory repository.ReviewRepository. Reads fill Username
// and StoreName from the given member and store fakes.
type Reviews struct {
	mu      sync.Mutex
	rows    map[string]domain.Review
	last    time.Time
	members *Members
	stores  *Stores
}

// NewReviews returns an empty review repository joined to members and stores.
func NewReviews(members *Members, stores *Stores) *Reviews {
	return &Reviews{rows: make(map[string]domain.Review), members: members, stores: stores}
}

var _ repository.ReviewRepository = (*Reviews)(nil)

func (r *Reviews) Create(_ context.Context, review *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Creation times strictly increase so newest-first order is stable.
	now := time.Now().UTC()
	if !now.After(r.last) {
		now = r.last.Add(time.Microsecond)
	}
	r.last = now
	review.ID = uuid.NewString()
	review.CreatedAt = now
	review.UpdatedAt = review.CreatedAt
	r.rows[review.ID] = *review
	return nil
}

func (r *Reviews) Update(_ context.Context, review *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[review.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	row.Content = review.Content
	row.Rating = review.Rating
	row.UpdatedAt = time.Now().UTC()
	r.rows[review.ID] = row
	review.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *Reviews) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.rows, id)
	return nil
}

func (r *Reviews) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	r.mu.Lock()
	row, ok := r.rows[id]
	r.mu.Unlock()
	if !ok {
		return nil, pgx.ErrNoRows
	}
	joined, ok := r.join(ctx, row)
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &joined, nil
}

func (r *Reviews) ListByStore(ctx context.Context, storeID string) ([]domain.Review, error) {
	return r.list(ctx, func(row domain.Review) bool { return row.StoreID == storeID }), nil
}

func (r *Reviews) ListByMember(ctx context.Context, memberID string) ([]domain.Review, error) {
	return r.list(ctx, func(row domain.Review) bool { return row.MemberID == memberID }), nil
}

// list returns matching reviews newest first, dropping rows whose member or
// store is gone as the inner join would.
func (r *Reviews) list(ctx context.Context, match func(domain.Review) bool) []domain.Review {
	r.mu.Lock()
	var rows []domain.Review
	for _, row := range r.rows {
		if match(row) {
			rows = append(rows, row)
		}
	}
	r.mu.Unlock()

	out := []domain.Review{}
	for _, row := range rows {
		if joined, ok := r.join(ctx, row); ok {
			out = append(out, joined)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *Reviews) join(ctx context.Context, row domain.Review) (domain.Review, bool) {
	member, err := r.members.GetByID(ctx, row.MemberID)
	if err != nil {
		return domain.Review{}, false
	}
	store, err := r.stores.GetByID(ctx, row.StoreID)
	if err != nil {
		return domain.Review{}, false
	}
	row.Username = member.Username
	row.StoreName = store.StoreName
	return row, true
}
