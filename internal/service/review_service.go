package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/tablebook/reservation-service/internal/auth"
	"github.com/tablebook/reservation-service/internal/domain"
	"github.com/tablebook/reservation-service/internal/events"
	"github.com/tablebook/reservation-service/internal/repository"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

// ReviewInput carries a new review. MemberID is optional; when present it
// must name the caller.
type ReviewInput struct {
	MemberID string
	StoreID  string
	Content  string
	Rating   int
}

// ReviewService lets members rate stores.
type ReviewService struct {
	reviews    repository.ReviewRepository
	members    repository.MemberRepository
	stores     repository.StoreRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ReviewDependencies encapsulates collaborators for the review service.
type ReviewDependencies struct {
	Reviews    repository.ReviewRepository
	Members    repository.MemberRepository
	Stores     repository.StoreRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewReviewService builds the service.
func NewReviewService(deps ReviewDependencies) *ReviewService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{
		reviews:    deps.Reviews,
		members:    deps.Members,
		stores:     deps.Stores,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Create posts a review of a store by the caller.
func (s *ReviewService) Create(ctx context.Context, actor *auth.Principal, in ReviewInput) (*domain.Review, error) {
	content, err := checkReview(in.Content, in.Rating)
	if err != nil {
		return nil, err
	}
	member, err := s.actorMember(ctx, actor)
	if err != nil {
		return nil, err
	}
	if in.MemberID != "" && in.MemberID != member.ID {
		return nil, apperrors.NewForbidden("reviews may only be posted as yourself")
	}
	if _, err := uuid.Parse(in.StoreID); err != nil {
		return nil, apperrors.NewNotFound("store")
	}
	store, err := s.stores.GetByID(ctx, in.StoreID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("store")
		}
		return nil, err
	}

	review := &domain.Review{
		MemberID:  member.ID,
		StoreID:   store.ID,
		Content:   content,
		Rating:    in.Rating,
		Username:  member.Username,
		StoreName: store.StoreName,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventReviewPosted, review.ID, actor.Subject,
		events.ReviewPostedPayload{StoreID: store.ID, MemberID: member.ID, Rating: review.Rating}))
	return review, nil
}

// ListByStoreName returns the reviews of the named store, newest first.
func (s *ReviewService) ListByStoreName(ctx context.Context, storeName string) ([]domain.Review, error) {
	store, err := s.stores.GetByName(ctx, storeName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("store")
		}
		return nil, err
	}
	return s.reviews.ListByStore(ctx, store.ID)
}

// ListByUsername returns the reviews written by the named member, newest first.
func (s *ReviewService) ListByUsername(ctx context.Context, username string) ([]domain.Review, error) {
	member, err := s.members.GetByUsername(ctx, domain.NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("member")
		}
		return nil, err
	}
	return s.reviews.ListByMember(ctx, member.ID)
}

// Update rewrites the caller's own review.
func (s *ReviewService) Update(ctx context.Context, actor *auth.Principal, id, content string, rating int) (*domain.Review, error) {
	content, err := checkReview(content, rating)
	if err != nil {
		return nil, err
	}
	review, err := s.ownReview(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	review.Content = content
	review.Rating = rating
	if err := s.reviews.Update(ctx, review); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("review")
		}
		return nil, err
	}
	return review, nil
}

// Delete removes the caller's own review.
func (s *ReviewService) Delete(ctx context.Context, actor *auth.Principal, id string) error {
	review, err := s.ownReview(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, review.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("review")
		}
		return err
	}
	return nil
}

// checkReview returns the trimmed content when it and rating are acceptable.
func checkReview(content string, rating int) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > domain.ReviewContentMax {
		return "", apperrors.NewValidationError("content must be 1 to 200 characters")
	}
	if rating < domain.RatingMin || rating > domain.RatingMax {
		return "", apperrors.NewValidationError("rating must be between 1 and 5")
	}
	return content, nil
}

func (s *ReviewService) ownReview(ctx context.Context, actor *auth.Principal, id string) (*domain.Review, error) {
	member, err := s.actorMember(ctx, actor)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound("review")
	}
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("review")
		}
		return nil, err
	}
	if review.MemberID != member.ID {
		return nil, apperrors.NewForbidden("review belongs to another member")
	}
	return review, nil
}

func (s *ReviewService) actorMember(ctx context.Context, actor *auth.Principal) (*domain.Member, error) {
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

func (s *ReviewService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
