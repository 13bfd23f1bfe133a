package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

// Role enumerates the access levels a member can hold.
type Role string

const (
	RoleUser    Role = "USER"
	RoleManager Role = "MANAGER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleManager:
		return true
	}
	return false
}

// ParseRole converts a raw value into a Role, rejecting unknown values.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// Authorize decides whether principal satisfies the requirement. The requirement
// is a disjunction: any one of required grants access. An empty requirement
// admits every authenticated principal.
func Authorize(principal *Principal, required ...Role) error {
	if principal == nil {
		return apperrors.ErrUnauthenticated
	}
	if len(required) == 0 {
		return nil
	}
	for _, role := range required {
		if principal.Role == role {
			return nil
		}
	}
	return apperrors.ErrForbidden
}

// RequireRoles ensures the attached principal holds one of the allowed roles.
func RequireRoles(required ...Role) fiber.Handler {
	allowed := append([]Role(nil), required...)
	return func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromFiber(c)
		if err := Authorize(principal, allowed...); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireAnyRole ensures the caller is authenticated, whatever the role.
func RequireAnyRole() fiber.Handler {
	return RequireRoles()
}
