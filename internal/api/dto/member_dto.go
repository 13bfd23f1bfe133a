package dto

import (
	"unicode/utf8"

	"github.com/tablebook/reservation-service/internal/domain"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

// SignUpRequest payload for new members.
type SignUpRequest struct {
	MemberName  string            `json:"memberName"`
	Password    string            `json:"password"`
	PhoneNumber string            `json:"phoneNumber"`
	MemberType  domain.MemberType `json:"memberType"`
}

// Validate checks field constraints.
func (r SignUpRequest) Validate() error {
	if !domain.ValidUsername(r.MemberName) {
		return apperrors.NewValidationError("memberName must be 3 to 50 characters")
	}
	if utf8.RuneCountInString(r.Password) < 6 {
		return apperrors.NewValidationError("password must be at least 6 characters")
	}
	if r.PhoneNumber == "" {
		return apperrors.NewValidationError("phoneNumber is required")
	}
	return nil
}

// SignUpResponse acknowledges a registration.
type SignUpResponse struct {
	ID         string `json:"id"`
	MemberName string `json:"memberName"`
	Message    string `json:"message"`
}

// SignInRequest payload for login.
type SignInRequest struct {
	MemberName string `json:"memberName"`
	Password   string `json:"password"`
}

// Validate checks field constraints.
func (r SignInRequest) Validate() error {
	if domain.NormalizeUsername(r.MemberName) == "" || r.Password == "" {
		return apperrors.NewValidationError("memberName and password are required")
	}
	return nil
}

// SignInResponse carries the issued token.
type SignInResponse struct {
	Token      string `json:"token"`
	UserID     string `json:"userId"`
	MemberName string `json:"memberName"`
	Message    string `json:"message"`
}

// MemberResponse is the public view of a member.
type MemberResponse struct {
	ID          string            `json:"id"`
	MemberName  string            `json:"memberName"`
	PhoneNumber string            `json:"phoneNumber"`
	MemberType  domain.MemberType `json:"memberType"`
}

// NewMemberResponse maps a member to its public view.
func NewMemberResponse(m *domain.Member) MemberResponse {
	return MemberResponse{
		ID:          m.ID,
		MemberName:  m.Username,
		PhoneNumber: m.PhoneNumber,
		MemberType:  m.MemberType,
	}
}

// MemberUpdateRequest payload for profile edits.
type MemberUpdateRequest struct {
	MemberName  string `json:"memberName"`
	PhoneNumber string `json:"phoneNumber"`
}

// Validate checks field constraints.
func (r MemberUpdateRequest) Validate() error {
	if !domain.ValidUsername(r.MemberName) {
		return apperrors.NewValidationError("memberName must be 3 to 50 characters")
	}
	if r.PhoneNumber == "" {
		return apperrors.NewValidationError("phoneNumber is required")
	}
	return nil
}

// MemberDeleteRequest payload for account removal.
type MemberDeleteRequest struct {
	Password string `json:"password"`
}
