package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablebook/reservation-service/internal/auth"
	"github.com/tablebook/reservation-service/internal/domain"
	"github.com/tablebook/reservation-service/internal/events"
	"github.com/tablebook/reservation-service/internal/ratelimit"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, int, time.Duration) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("redis down")
}

func TestSignUp_DefaultsToUserAndHashesPassword(t *testing.T) {
	h := newHarness(t, nil)

	member, err := h.memberSvc.SignUp(context.Background(), SignUpInput{Username: "alice", Password: "password1", PhoneNumber: "010"})
	require.NoError(t, err)
	assert.Equal(t, domain.MemberTypeUser, member.MemberType)
	assert.NotEqual(t, "password1", member.PasswordHash)
	assert.NoError(t, h.hasher.Compare(member.PasswordHash, "password1"))

	require.Len(t, h.published, 1)
	assert.Equal(t, events.EventMemberRegistered, h.published[0].Type)
	assert.Equal(t, member.ID, h.published[0].SubjectID)
}

func TestSignUp_DuplicateUsername(t *testing.T) {
	h := newHarness(t, nil)
	h.signUp(t, "alice", domain.MemberTypeUser)

	_, err := h.memberSvc.SignUp(context.Background(), SignUpInput{Username: "alice", Password: "other-pass"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateIdentity)
}

func TestSignUp_RejectsUnknownMemberType(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.memberSvc.SignUp(context.Background(), SignUpInput{Username: "alice", Password: "password1", MemberType: "ADMIN"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.ToDomainError(err).Code)
}

func TestSignIn_IssuesVerifiableToken(t *testing.T) {
	h := newHarness(t, nil)
	h.signUp(t, "bob", domain.MemberTypeManager)

	result, err := h.memberSvc.SignIn(context.Background(), "bob", "password1")
	require.NoError(t, err)
	assert.Equal(t, "bob", result.Member.Username)
	assert.Equal(t, testNow.Add(auth.DefaultTokenLifetime), result.Token.ExpiresAt)

	claims, err := h.tokens.Decode(result.Token.Value)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Subject)
	assert.Equal(t, auth.RoleManager, claims.Role)
}

func TestSignIn_UnknownUserAndWrongPasswordAreIndistinguishable(t *testing.T) {
	h := newHarness(t, nil)
	h.signUp(t, "alice", domain.MemberTypeUser)

	_, unknownErr := h.memberSvc.SignIn(context.Background(), "nobody", "password1")
	_, wrongErr := h.memberSvc.SignIn(context.Background(), "alice", "wrong-password")

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.ErrorIs(t, unknownErr, apperrors.ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, apperrors.ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	assert.Equal(t, apperrors.ToDomainError(unknownErr).HTTPStatus, apperrors.ToDomainError(wrongErr).HTTPStatus)
}

func TestSignIn_Throttled(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{Now: func() time.Time { return testNow }})
	h := newHarness(t, limiter)
	h.signUp(t, "alice", domain.MemberTypeUser)

	for i := 0; i < 3; i++ {
		_, err := h.memberSvc.SignIn(context.Background(), "alice", "wrong")
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	}
	_, err := h.memberSvc.SignIn(context.Background(), "alice", "password1")
	assert.ErrorIs(t, err, apperrors.ErrTooManyAttempts)

	// Other usernames have their own budget.
	_, err = h.memberSvc.SignIn(context.Background(), "nobody", "password1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestSignIn_LimiterOutageFailsOpen(t *testing.T) {
	h := newHarness(t, failingLimiter{})
	h.signUp(t, "alice", domain.MemberTypeUser)

	_, err := h.memberSvc.SignIn(context.Background(), "alice", "password1")
	assert.NoError(t, err)
}

func TestCredentialStore_LookupIdentity(t *testing.T) {
	h := newHarness(t, nil)
	h.signUp(t, "bob", domain.MemberTypeManager)

	identity, err := h.credentials.LookupIdentity(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{Subject: "bob", Role: auth.RoleManager}, identity)

	_, err = h.credentials.LookupIdentity(context.Background(), "ghost")
	assert.ErrorIs(t, err, auth.ErrIdentityNotFound)

	h.members.Err = errors.New("connection reset")
	_, err = h.credentials.LookupIdentity(context.Background(), "bob")
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrIdentityNotFound)
}

func TestMemberGet_InvalidIDIsNotFound(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.memberSvc.Get(context.Background(), "not-a-uuid")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.ToDomainError(err).Code)
}

func TestMemberUpdate_OnlyOwnAccount(t *testing.T) {
	h := newHarness(t, nil)
	alice, alicePrincipal := h.signUp(t, "alice", domain.MemberTypeUser)
	_, bobPrincipal := h.signUp(t, "bob", domain.MemberTypeUser)

	_, err := h.memberSvc.Update(context.Background(), bobPrincipal, alice.ID, "mallory", "010")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.ToDomainError(err).Code)

	_, err = h.memberSvc.Update(context.Background(), alicePrincipal, alice.ID, "bob", "010")
	assert.ErrorIs(t, err, apperrors.ErrDuplicateIdentity)

	updated, err := h.memberSvc.Update(context.Background(), alicePrincipal, alice.ID, "alice2", "010-1111")
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)
	assert.Equal(t, "010-1111", updated.PhoneNumber)
}

func TestMemberDelete_RequiresPassword(t *testing.T) {
	h := newHarness(t, nil)
	alice, principal := h.signUp(t, "alice", domain.MemberTypeUser)

	err := h.memberSvc.Delete(context.Background(), principal, alice.ID, "wrong")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	require.NoError(t, h.memberSvc.Delete(context.Background(), principal, alice.ID, "password1"))
	_, err = h.memberSvc.Get(context.Background(), alice.ID)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.ToDomainError(err).Code)
}

func TestUsernamesAreNormalized(t *testing.T) {
	h := newHarness(t, nil)
	decomposed := "jose\u0301"
	composed := "jos\u00e9"

	member, err := h.memberSvc.SignUp(context.Background(), SignUpInput{Username: " " + decomposed + " ", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, composed, member.Username)

	_, err = h.memberSvc.SignUp(context.Background(), SignUpInput{Username: composed, Password: "password1"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateIdentity)

	result, err := h.memberSvc.SignIn(context.Background(), decomposed, "password1")
	require.NoError(t, err)
	assert.Equal(t, member.ID, result.Member.ID)
}

func TestUsernameBoundsApplyAfterNormalization(t *testing.T) {
	h := newHarness(t, nil)

	for _, name := range []string{"", "   ", "\t\n", " ab ", "e\u0301e\u0301"} {
		_, err := h.memberSvc.SignUp(context.Background(), SignUpInput{Username: name, Password: "password1"})
		assert.Equal(t, apperrors.CodeValidationFailed, apperrors.ToDomainError(err).Code, "name %q", name)
	}
	assert.Empty(t, h.published)

	_, err := h.memberSvc.SignIn(context.Background(), "    ", "password1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	alice, principal := h.signUp(t, "alice", domain.MemberTypeUser)
	for _, name := range []string{"   ", " ab "} {
		_, err := h.memberSvc.Update(context.Background(), principal, alice.ID, name, "010")
		assert.Equal(t, apperrors.CodeValidationFailed, apperrors.ToDomainError(err).Code, "name %q", name)
	}
	stored, err := h.memberSvc.Get(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Username)
}
