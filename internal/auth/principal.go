package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/tablebook/reservation-service/internal/config"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

const principalKey = "auth_principal"

type principalCtxKey struct{}

// ErrIdentityNotFound is returned by an IdentityLookup when the subject does not exist.
var ErrIdentityNotFound = errors.New("identity not found")

// Identity is a subject and its assigned role as recorded by the credential store.
type Identity struct {
	Subject string
	Role    Role
}

// Principal represents the authenticated caller of a single request.
type Principal struct {
	Subject string
	Role    Role
}

// IdentityLookup fetches the current identity record for a subject.
type IdentityLookup interface {
	LookupIdentity(ctx context.Context, subject string) (Identity, error)
}

// ResolvePolicy selects where the principal's role comes from.
type ResolvePolicy int

const (
	// ResolveRefetch loads the identity from the store on every request.
	ResolveRefetch ResolvePolicy = iota
	// ResolveTrustToken takes subject and role from the verified claims.
	ResolveTrustToken
)

// ParseResolvePolicy maps a configuration value onto a ResolvePolicy.
func ParseResolvePolicy(raw string) (ResolvePolicy, error) {
	switch raw {
	case "", config.PrincipalPolicyRefetch:
		return ResolveRefetch, nil
	case config.PrincipalPolicyTrustToken:
		return ResolveTrustToken, nil
	}
	return 0, fmt.Errorf("unknown principal policy %q", raw)
}

// Resolver turns verified claims into a Principal.
type Resolver struct {
	identities IdentityLookup
	policy     ResolvePolicy
}

// NewResolver builds a resolver. identities may be nil only with ResolveTrustToken.
func NewResolver(identities IdentityLookup, policy ResolvePolicy) *Resolver {
	return &Resolver{identities: identities, policy: policy}
}

// Resolve builds the principal for claims.
func (r *Resolver) Resolve(ctx context.Context, claims *Claims) (*Principal, error) {
	if claims == nil {
		return nil, apperrors.ErrMalformedToken
	}
	if r.policy == ResolveTrustToken {
		return &Principal{Subject: claims.Subject, Role: claims.Role}, nil
	}

	identity, err := r.identities.LookupIdentity(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, apperrors.ErrPrincipalNotFound
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("lookup identity: %w", err))
	}
	return &Principal{Subject: identity.Subject, Role: identity.Role}, nil
}

// WithPrincipal returns a copy of ctx carrying principal.
func WithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, principal)
}

// PrincipalFromContext retrieves the authenticated caller from a request context.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	principal, ok := ctx.Value(principalCtxKey{}).(*Principal)
	return principal, ok && principal != nil
}

// PrincipalFromFiber retrieves the authenticated caller attached by the filter.
func PrincipalFromFiber(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal != nil
}
