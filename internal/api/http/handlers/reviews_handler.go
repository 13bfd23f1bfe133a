package handlers

import (
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/tablebook/reservation-service/internal/api/dto"
	"github.com/tablebook/reservation-service/internal/auth"
	"github.com/tablebook/reservation-service/internal/domain"
	"github.com/tablebook/reservation-service/internal/service"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

// ReviewsHandler exposes store review endpoints.
type ReviewsHandler struct {
	reviews *service.ReviewService
}

// NewReviewsHandler constructs handler.
func NewReviewsHandler(reviews *service.ReviewService) *ReviewsHandler {
	return &ReviewsHandler{reviews: reviews}
}

// Create handles POST /api/v1/reviews.
func (h *ReviewsHandler) Create(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromFiber(c)

	var req dto.ReviewRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	review, err := h.reviews.Create(c.UserContext(), principal, service.ReviewInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewReviewResponse(review))
}

// ListByStore handles GET /api/v1/reviews/store/:storeName.
func (h *ReviewsHandler) ListByStore(c *fiber.Ctx) error {
	name, err := nameParam(c, "storeName")
	if err != nil {
		return err
	}
	reviews, err := h.reviews.ListByStoreName(c.UserContext(), name)
	if err != nil {
		return err
	}
	return c.JSON(reviewResponses(reviews))
}

// ListByUser handles GET /api/v1/reviews/user/:username.
func (h *ReviewsHandler) ListByUser(c *fiber.Ctx) error {
	name, err := nameParam(c, "username")
	if err != nil {
		return err
	}
	reviews, err := h.reviews.ListByUsername(c.UserContext(), name)
	if err != nil {
		return err
	}
	return c.JSON(reviewResponses(reviews))
}

// Update handles PUT /api/v1/reviews/:reviewId.
func (h *ReviewsHandler) Update(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromFiber(c)

	var req dto.ReviewUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	review, err := h.reviews.Update(c.UserContext(), principal, c.Params("reviewId"), req.Content, req.Rating)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewReviewResponse(review))
}

// Delete handles DELETE /api/v1/reviews/:reviewId.
func (h *ReviewsHandler) Delete(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromFiber(c)

	if err := h.reviews.Delete(c.UserContext(), principal, c.Params("reviewId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func reviewResponses(reviews []domain.Review) []dto.ReviewResponse {
	out := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, dto.NewReviewResponse(&reviews[i]))
	}
	return out
}

// nameParam returns a percent-decoded path parameter; names may hold spaces
// and non-ASCII text.
func nameParam(c *fiber.Ctx, key string) (string, error) {
	name, err := url.PathUnescape(c.Params(key))
	if err != nil {
		return "", apperrors.NewValidationError(key + " is not a valid path segment")
	}
	return name, nil
}
