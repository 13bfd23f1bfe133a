package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablebook/reservation-service/internal/domain"
)

// ReservationRepository defines persistence access for reservations.
type ReservationRepository interface {
	Create(ctx context.Context, reservation *domain.Reservation) error
	// Update writes reservation only while its stored status is still expected.
	// A missing row or a status that moved on both yield pgx.ErrNoRows.
	Update(ctx context.Context, reservation *domain.Reservation, expected domain.ReservationStatus) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	ListByMember(ctx context.Context, memberID string) ([]domain.Reservation, error)
	ExistsAt(ctx context.Context, storeID string, at time.Time) (bool, error)
}

type reservationRepository struct {
	pool *pgxpool.Pool
}

// NewReservationRepository returns a Postgres-backed implementation.
func NewReservationRepository(pool *pgxpool.Pool) ReservationRepository {
	return &reservationRepository{pool: pool}
}

const reservationColumns = `id, member_id, store_id, status, arrival_status, reserved_at, created_at, updated_at`

func (r *reservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	const query = `
        INSERT INTO reservations (member_id, store_id, status, arrival_status, reserved_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		reservation.MemberID,
		reservation.StoreID,
		reservation.Status,
		reservation.ArrivalStatus,
		reservation.ReservedAt,
	).Scan(&reservation.ID, &reservation.CreatedAt, &reservation.UpdatedAt)
	return translateWriteError(err)
}

func (r *reservationRepository) Update(ctx context.Context, reservation *domain.Reservation, expected domain.ReservationStatus) error {
	const query = `
        UPDATE reservations SET status=$1, arrival_status=$2, reserved_at=$3, updated_at=NOW()
        WHERE id=$4 AND status=$5
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		reservation.Status,
		reservation.ArrivalStatus,
		reservation.ReservedAt,
		reservation.ID,
		expected,
	).Scan(&reservation.UpdatedAt)
	return translateWriteError(err)
}

func (r *reservationRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM reservations WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *reservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id=$1`, id)
	reservation, err := scanReservation(row)
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

func (r *reservationRepository) ListByMember(ctx context.Context, memberID string) ([]domain.Reservation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE member_id=$1 ORDER BY reserved_at`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *reservation)
	}
	return out, rows.Err()
}

func (r *reservationRepository) ExistsAt(ctx context.Context, storeID string, at time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM reservations WHERE store_id=$1 AND reserved_at=$2)`, storeID, at).Scan(&exists)
	return exists, err
}

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var reservation domain.Reservation
	if err := row.Scan(
		&reservation.ID,
		&reservation.MemberID,
		&reservation.StoreID,
		&reservation.Status,
		&reservation.ArrivalStatus,
		&reservation.ReservedAt,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &reservation, nil
}
