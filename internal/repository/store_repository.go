package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablebook/reservation-service/internal/domain"
)

// StoreRepository defines persistence access for stores.
type StoreRepository interface {
	Create(ctx context.Context, store *domain.Store) error
	Update(ctx context.Context, store *domain.Store) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Store, error)
	GetByName(ctx context.Context, name string) (*domain.Store, error)
}

type storeRepository struct {
	pool *pgxpool.Pool
}

// NewStoreRepository returns a Postgres-backed implementation.
func NewStoreRepository(pool *pgxpool.Pool) StoreRepository {
	return &storeRepository{pool: pool}
}

const storeColumns = `id, store_name, location, description, created_at, updated_at`

func (r *storeRepository) Create(ctx context.Context, store *domain.Store) error {
	const query = `
        INSERT INTO stores (store_name, location, description)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		store.StoreName,
		store.Location,
		store.Description,
	).Scan(&store.ID, &store.CreatedAt, &store.UpdatedAt)
	return translateWriteError(err)
}

func (r *storeRepository) Update(ctx context.Context, store *domain.Store) error {
	const query = `
        UPDATE stores SET store_name=$1, location=$2, description=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		store.StoreName,
		store.Location,
		store.Description,
		store.ID,
	).Scan(&store.UpdatedAt)
	return translateWriteError(err)
}

func (r *storeRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM stores WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *storeRepository) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	return r.getOne(ctx, `SELECT `+storeColumns+` FROM stores WHERE id=$1`, id)
}

func (r *storeRepository) GetByName(ctx context.Context, name string) (*domain.Store, error) {
	return r.getOne(ctx, `SELECT `+storeColumns+` FROM stores WHERE store_name=$1`, name)
}

func (r *storeRepository) getOne(ctx context.Context, query string, arg any) (*domain.Store, error) {
	var store domain.Store
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&store.ID,
		&store.StoreName,
		&store.Location,
		&store.Description,
		&store.CreatedAt,
		&store.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &store, nil
}
