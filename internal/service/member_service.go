package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/tablebook/reservation-service/internal/auth"
	"github.com/tablebook/reservation-service/internal/config"
	"github.com/tablebook/reservation-service/internal/domain"
	"github.com/tablebook/reservation-service/internal/events"
	"github.com/tablebook/reservation-service/internal/ratelimit"
	"github.com/tablebook/reservation-service/internal/repository"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

var errInvalidUsername = apperrors.NewValidationError("memberName must be 3 to 50 characters")

// TokenIssuer signs access tokens for an identity.
type TokenIssuer interface {
	Encode(identity auth.Identity) (auth.IssuedToken, error)
}

// SignUpInput carries a registration request.
type SignUpInput struct {
	Username    string
	Password    string
	PhoneNumber string
	MemberType  domain.MemberType
}

// SignInResult is a successful login.
type SignInResult struct {
	Member *domain.Member
	Token  auth.IssuedToken
}

// MemberService coordinates registration, login and profile management.
type MemberService struct {
	members     repository.MemberRepository
	credentials *CredentialStore
	hasher      auth.PasswordHasher
	tokens      TokenIssuer
	limiter     ratelimit.Limiter
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	loginLimit  int
	loginWindow time.Duration
}

// MemberDependencies encapsulates collaborators for the member service.
type MemberDependencies struct {
	Members     repository.MemberRepository
	Credentials *CredentialStore
	Hasher      auth.PasswordHasher
	Tokens      TokenIssuer
	Limiter     ratelimit.Limiter
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewMemberService builds the service.
func NewMemberService(cfg config.AuthConfig, deps MemberDependencies) *MemberService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemberService{
		members:     deps.Members,
		credentials: deps.Credentials,
		hasher:      deps.Hasher,
		tokens:      deps.Tokens,
		limiter:     deps.Limiter,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		loginLimit:  cfg.LoginMaxAttempts,
		loginWindow: cfg.LoginWindow(),
	}
}

// SignUp registers a new member.
func (s *MemberService) SignUp(ctx context.Context, in SignUpInput) (*domain.Member, error) {
	in.Username = domain.NormalizeUsername(in.Username)
	if !domain.ValidUsername(in.Username) {
		return nil, errInvalidUsername
	}
	if in.MemberType == "" {
		in.MemberType = domain.MemberTypeUser
	}
	if _, err := auth.ParseRole(string(in.MemberType)); err != nil {
		return nil, apperrors.NewValidationError("memberType must be USER or MANAGER")
	}

	exists, err := s.members.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrDuplicateIdentity
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	member := &domain.Member{
		Username:     in.Username,
		PasswordHash: hash,
		PhoneNumber:  in.PhoneNumber,
		MemberType:   in.MemberType,
	}
	if err := s.members.Create(ctx, member); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.ErrDuplicateIdentity
		}
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventMemberRegistered, member.ID, member.Username,
		events.MemberRegisteredPayload{Username: member.Username, MemberType: member.MemberType}))
	return member, nil
}

// SignIn verifies credentials and issues an access token.
func (s *MemberService) SignIn(ctx context.Context, username, password string) (*SignInResult, error) {
	username = domain.NormalizeUsername(username)
	if username == "" {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := s.throttle(ctx, username); err != nil {
		return nil, err
	}

	member, err := s.credentials.VerifyCredentials(ctx, username, password)
	if err != nil {
		return nil, err
	}
	identity, err := identityOf(member)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Encode(identity)
	if err != nil {
		return nil, err
	}
	return &SignInResult{Member: member, Token: token}, nil
}

// Get returns a member by ID.
func (s *MemberService) Get(ctx context.Context, id string) (*domain.Member, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound("member")
	}
	member, err := s.members.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("member")
		}
		return nil, err
	}
	return member, nil
}

// GetByUsername returns a member by name, normalized as at sign-up.
func (s *MemberService) GetByUsername(ctx context.Context, username string) (*domain.Member, error) {
	member, err := s.members.GetByUsername(ctx, domain.NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("member")
		}
		return nil, err
	}
	return member, nil
}

// Update changes the caller's own username and phone number.
func (s *MemberService) Update(ctx context.Context, actor *auth.Principal, id, username, phoneNumber string) (*domain.Member, error) {
	username = domain.NormalizeUsername(username)
	if !domain.ValidUsername(username) {
		return nil, errInvalidUsername
	}
	member, err := s.ownMember(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if username != member.Username {
		exists, err := s.members.ExistsByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, apperrors.ErrDuplicateIdentity
		}
	}

	member.Username = username
	member.PhoneNumber = phoneNumber
	if err := s.members.Update(ctx, member); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.ErrDuplicateIdentity
		}
		return nil, err
	}
	return member, nil
}

// Delete removes the caller's own account after re-checking the password.
func (s *MemberService) Delete(ctx context.Context, actor *auth.Principal, id, password string) error {
	member, err := s.ownMember(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(member.PasswordHash, password); err != nil {
		return apperrors.ErrInvalidCredentials
	}
	if err := s.members.Delete(ctx, member.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("member")
		}
		return err
	}
	return nil
}

func (s *MemberService) ownMember(ctx context.Context, actor *auth.Principal, id string) (*domain.Member, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	member, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if member.Username != actor.Subject {
		return nil, apperrors.NewForbidden("members may only manage their own account")
	}
	return member, nil
}

// throttle fails open when the limiter backend is unavailable.
func (s *MemberService) throttle(ctx context.Context, username string) error {
	if s.limiter == nil {
		return nil
	}
	decision, err := s.limiter.Allow(ctx, "login:"+username, s.loginLimit, s.loginWindow)
	if err != nil {
		s.logger.Warn("login limiter unavailable", zap.Error(err))
		return nil
	}
	if !decision.Allowed {
		return apperrors.ErrTooManyAttempts
	}
	return nil
}

func (s *MemberService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
