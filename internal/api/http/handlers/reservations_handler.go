package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tablebook/reservation-service/internal/api/dto"
	"github.com/tablebook/reservation-service/internal/auth"
	"github.com/tablebook/reservation-service/internal/service"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

// ReservationsHandler exposes booking endpoints.
type ReservationsHandler struct {
	reservations *service.ReservationService
}

// NewReservationsHandler constructs handler.
func NewReservationsHandler(reservations *service.ReservationService) *ReservationsHandler {
	return &ReservationsHandler{reservations: reservations}
}

// Create handles POST /api/v1/reservations.
func (h *ReservationsHandler) Create(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromFiber(c)

	var req dto.ReservationCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	reservation, err := h.reservations.Create(c.UserContext(), principal, req.StoreID, req.ReservationDateTime)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewReservationResponse(reservation))
}

// ListByMember handles GET /api/v1/reservations/member/:memberId.
func (h *ReservationsHandler) ListByMember(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromFiber(c)

	reservations, err := h.reservations.ListByMember(c.UserContext(), principal, c.Params("memberId"))
	if err != nil {
		return err
	}
	out := make([]dto.ReservationResponse, 0, len(reservations))
	for i := range reservations {
		out = append(out, dto.NewReservationResponse(&reservations[i]))
	}
	return c.JSON(out)
}

// Get handles GET /api/v1/reservations/:reservationId.
func (h *ReservationsHandler) Get(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromFiber(c)

	reservation, err := h.reservations.Get(c.UserContext(), principal, c.Params("reservationId"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewReservationResponse(reservation))
}

// Update handles PUT /api/v1/reservations/:reservationId.
func (h *ReservationsHandler) Update(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromFiber(c)

	var req dto.ReservationUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	reservation, err := h.reservations.Reschedule(c.UserContext(), principal, c.Params("reservationId"), req.ReservationDateTime)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewReservationResponse(reservation))
}

// Delete handles DELETE /api/v1/reservations/:reservationId.
func (h *ReservationsHandler) Delete(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromFiber(c)

	if err := h.reservations.Cancel(c.UserContext(), principal, c.Params("reservationId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// UpdateStatus handles PATCH /api/v1/reservations/:reservationId/status.
func (h *ReservationsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromFiber(c)

	var req dto.ReservationStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}

	reservation, err := h.reservations.Decide(c.UserContext(), principal, c.Params("reservationId"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewReservationResponse(reservation))
}
