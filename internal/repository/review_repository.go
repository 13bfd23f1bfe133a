package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablebook/reservation-service/internal/domain"
)

// ReviewRepository defines persistence access for reviews. Reads join the
// author's username and the store's name.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	Update(ctx context.Context, review *domain.Review) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Review, error)
	ListByStore(ctx context.Context, storeID string) ([]domain.Review, error)
	ListByMember(ctx context.Context, memberID string) ([]domain.Review, error)
}

type reviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository returns a Postgres-backed implementation.
func NewReviewRepository(pool *pgxpool.Pool) ReviewRepository {
	return &reviewRepository{pool: pool}
}

const reviewSelect = `
        SELECT r.id, r.member_id, r.store_id, r.content, r.rating, m.username, s.store_name, r.created_at, r.updated_at
        FROM reviews r
        JOIN members m ON m.id = r.member_id
        JOIN stores s ON s.id = r.store_id`

func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	const query = `
        INSERT INTO reviews (member_id, store_id, content, rating)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		review.MemberID,
		review.StoreID,
		review.Content,
		review.Rating,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	return translateWriteError(err)
}

func (r *reviewRepository) Update(ctx context.Context, review *domain.Review) error {
	const query = `
        UPDATE reviews SET content=$1, rating=$2, updated_at=NOW()
        WHERE id=$3
        RETURNING updated_at`

	return r.pool.QueryRow(ctx, query, review.Content, review.Rating, review.ID).Scan(&review.UpdatedAt)
}

func (r *reviewRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	rows, err := r.pool.Query(ctx, reviewSelect+` WHERE r.id=$1`, id)
	if err != nil {
		return nil, err
	}
	review, err := pgx.CollectExactlyOneRow(rows, scanReview)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) ListByStore(ctx context.Context, storeID string) ([]domain.Review, error) {
	return r.list(ctx, reviewSelect+` WHERE r.store_id=$1 ORDER BY r.created_at DESC`, storeID)
}

func (r *reviewRepository) ListByMember(ctx context.Context, memberID string) ([]domain.Review, error) {
	return r.list(ctx, reviewSelect+` WHERE r.member_id=$1 ORDER BY r.created_at DESC`, memberID)
}

func (r *reviewRepository) list(ctx context.Context, query string, arg any) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanReview)
}

func scanReview(row pgx.CollectableRow) (domain.Review, error) {
	var review domain.Review
	err := row.Scan(
		&review.ID,
		&review.MemberID,
		&review.StoreID,
		&review.Content,
		&review.Rating,
		&review.Username,
		&review.StoreName,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	return review, err
}
