package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

const (
	// AuthorizationHeader carries the bearer token.
	AuthorizationHeader = "Authorization"
	// BearerPrefix must precede the token exactly, case included.
	BearerPrefix = "Bearer "
)

// TokenDecoder verifies a raw token and returns its claims.
type TokenDecoder interface {
	Decode(token string) (*Claims, error)
}

// PrincipalResolver builds a principal from verified claims.
type PrincipalResolver interface {
	Resolve(ctx context.Context, claims *Claims) (*Principal, error)
}

// Authenticator runs the per-request authentication pipeline:
// extract, decode and verify, resolve, attach.
type Authenticator struct {
	tokens   TokenDecoder
	resolver PrincipalResolver
	logger   *zap.Logger
}

// NewAuthenticator constructs the request authentication filter.
func NewAuthenticator(tokens TokenDecoder, resolver PrincipalResolver, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{tokens: tokens, resolver: resolver, logger: logger}
}

// ExtractBearer returns the token material from an Authorization header value.
func ExtractBearer(header string) (string, error) {
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", apperrors.ErrMissingToken
	}
	token := header[len(BearerPrefix):]
	if token == "" {
		return "", apperrors.ErrMissingToken
	}
	return token, nil
}

// Authenticate resolves the principal for an Authorization header value. It
// has no transport dependency; Middleware adapts it to Fiber.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*Principal, error) {
	token, err := ExtractBearer(header)
	if err != nil {
		return nil, err
	}
	claims, err := a.tokens.Decode(token)
	if err != nil {
		return nil, err
	}
	return a.resolver.Resolve(ctx, claims)
}

// Middleware enforces authentication on every request for which skip returns
// false. A nil skip protects everything.
func (a *Authenticator) Middleware(skip func(*fiber.Ctx) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skip != nil && skip(c) {
			return c.Next()
		}

		principal, err := a.Authenticate(c.UserContext(), c.Get(AuthorizationHeader))
		if err != nil {
			a.logger.Debug("authentication rejected",
				zap.String("path", c.Path()),
				zap.String("code", apperrors.ToDomainError(err).Code))
			return err
		}

		c.Locals(principalKey, principal)
		c.SetUserContext(WithPrincipal(c.UserContext(), principal))
		return c.Next()
	}
}

// Route identifies an endpoint by method and exact path.
type Route struct {
	Method string
	Path   string
}

// AllowList is a fixed set of routes reachable without a token.
type AllowList struct {
	routes map[Route]struct{}
}

// NewAllowList builds an allow-list from routes.
func NewAllowList(routes ...Route) *AllowList {
	set := make(map[Route]struct{}, len(routes))
	for _, r := range routes {
		set[r] = struct{}{}
	}
	return &AllowList{routes: set}
}

// Allows reports whether method and path are on the list.
func (l *AllowList) Allows(method, path string) bool {
	_, ok := l.routes[Route{Method: method, Path: path}]
	return ok
}

// Skip adapts the allow-list to Authenticator.Middleware.
func (l *AllowList) Skip(c *fiber.Ctx) bool {
	return l.Allows(c.Method(), c.Path())
}
