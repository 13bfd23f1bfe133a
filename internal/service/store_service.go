package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tablebook/reservation-service/internal/domain"
	"github.com/tablebook/reservation-service/internal/repository"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

// StoreInput carries the editable fields of a store.
type StoreInput struct {
	StoreName   string
	Location    string
	Description string
}

// StoreService manages bookable stores.
type StoreService struct {
	stores repository.StoreRepository
}

// NewStoreService builds the service.
func NewStoreService(stores repository.StoreRepository) *StoreService {
	return &StoreService{stores: stores}
}

// Register creates a store with a unique name.
func (s *StoreService) Register(ctx context.Context, in StoreInput) (*domain.Store, error) {
	if _, err := s.stores.GetByName(ctx, in.StoreName); err == nil {
		return nil, apperrors.NewConflict("store name already registered")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	store := &domain.Store{
		StoreName:   in.StoreName,
		Location:    in.Location,
		Description: in.Description,
	}
	if err := s.stores.Create(ctx, store); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("store name already registered")
		}
		return nil, err
	}
	return store, nil
}

// Get returns a store by ID.
func (s *StoreService) Get(ctx context.Context, id string) (*domain.Store, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound("store")
	}
	store, err := s.stores.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("store")
		}
		return nil, err
	}
	return store, nil
}

// GetByName returns a store by its unique name.
func (s *StoreService) GetByName(ctx context.Context, name string) (*domain.Store, error) {
	store, err := s.stores.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("store")
		}
		return nil, err
	}
	return store, nil
}

// Update replaces the editable fields of a store.
func (s *StoreService) Update(ctx context.Context, id string, in StoreInput) (*domain.Store, error) {
	store, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	store.StoreName = in.StoreName
	store.Location = in.Location
	store.Description = in.Description
	if err := s.stores.Update(ctx, store); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("store name already registered")
		}
		return nil, err
	}
	return store, nil
}

// Delete removes a store and, by cascade, its reservations.
func (s *StoreService) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NewNotFound("store")
	}
	if err := s.stores.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("store")
		}
		return err
	}
	return nil
}
