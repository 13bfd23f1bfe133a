package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tablebook/reservation-service/internal/api/dto"
	"github.com/tablebook/reservation-service/internal/auth"
	"github.com/tablebook/reservation-service/internal/service"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

// MembersHandler exposes registration, login and profile endpoints.
type MembersHandler struct {
	members *service.MemberService
}

// NewMembersHandler constructs handler.
func NewMembersHandler(members *service.MemberService) *MembersHandler {
	return &MembersHandler{members: members}
}

// SignUp handles POST /api/v1/members/sign-up.
func (h *MembersHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	member, err := h.members.SignUp(c.UserContext(), service.SignUpInput{
		Username:    req.MemberName,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		MemberType:  req.MemberType,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.SignUpResponse{
		ID:         member.ID,
		MemberName: member.Username,
		Message:    "sign-up succeeded",
	})
}

// SignIn handles POST /api/v1/members/sign-in.
func (h *MembersHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	result, err := h.members.SignIn(c.UserContext(), req.MemberName, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.SignInResponse{
		Token:      result.Token.Value,
		UserID:     result.Member.ID,
		MemberName: result.Member.Username,
		Message:    "sign-in succeeded",
	})
}

// Get handles GET /api/v1/members/:memberId.
func (h *MembersHandler) Get(c *fiber.Ctx) error {
	member, err := h.members.Get(c.UserContext(), c.Params("memberId"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewMemberResponse(member))
}

// GetByName handles GET /api/v1/members/name/:username.
func (h *MembersHandler) GetByName(c *fiber.Ctx) error {
	name, err := nameParam(c, "username")
	if err != nil {
		return err
	}
	member, err := h.members.GetByUsername(c.UserContext(), name)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewMemberResponse(member))
}

// Update handles PUT /api/v1/members/:memberId.
func (h *MembersHandler) Update(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromFiber(c)

	var req dto.MemberUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	member, err := h.members.Update(c.UserContext(), principal, c.Params("memberId"), req.MemberName, req.PhoneNumber)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewMemberResponse(member))
}

// Delete handles DELETE /api/v1/members/:memberId.
func (h *MembersHandler) Delete(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromFiber(c)

	var req dto.MemberDeleteRequest
	if err := c.BodyParser(&req); err != nil || req.Password == "" {
		return apperrors.NewValidationError("password is required")
	}

	if err := h.members.Delete(c.UserContext(), principal, c.Params("memberId"), req.Password); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
