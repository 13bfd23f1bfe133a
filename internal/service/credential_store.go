package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tablebook/reservation-service/internal/auth"
	"github.com/tablebook/reservation-service/internal/domain"
	"github.com/tablebook/reservation-service/internal/repository"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

// CredentialStore looks up identities by username and verifies passwords. It
// depends only on the member repository and a hasher, never on token issuance.
type CredentialStore struct {
	members   repository.MemberRepository
	hasher    auth.PasswordHasher
	dummyHash string
}

// NewCredentialStore builds the store. The dummy hash lets unknown usernames
// pay the same bcrypt cost as known ones.
func NewCredentialStore(members repository.MemberRepository, hasher auth.PasswordHasher) (*CredentialStore, error) {
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &CredentialStore{members: members, hasher: hasher, dummyHash: dummy}, nil
}

// LookupIdentity returns the current identity for username.
func (s *CredentialStore) LookupIdentity(ctx context.Context, username string) (auth.Identity, error) {
	member, err := s.members.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.Identity{}, auth.ErrIdentityNotFound
		}
		return auth.Identity{}, err
	}
	return identityOf(member)
}

// VerifyCredentials returns the member when password matches. Unknown usernames
// and wrong passwords fail with the same INVALID_CREDENTIALS error.
func (s *CredentialStore) VerifyCredentials(ctx context.Context, username, password string) (*domain.Member, error) {
	member, err := s.members.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			_ = s.hasher.Compare(s.dummyHash, password)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.hasher.Compare(member.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}
	return member, nil
}

func identityOf(member *domain.Member) (auth.Identity, error) {
	role, err := auth.ParseRole(string(member.MemberType))
	if err != nil {
		return auth.Identity{}, fmt.Errorf("member %s: %w", member.ID, err)
	}
	return auth.Identity{Subject: member.Username, Role: role}, nil
}
