package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/tablebook/reservation-service/internal/config"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

// DefaultTokenLifetime is how long an issued token stays valid.
const DefaultTokenLifetime = time.Hour

var signingMethod = jwt.SigningMethodHS256

// Claims describes the JWT payload.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// IssuedToken is a freshly signed token and its validity window.
type IssuedToken struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// CodecOption customizes a TokenCodec.
type CodecOption func(*TokenCodec)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) CodecOption {
	return func(tc *TokenCodec) {
		if now != nil {
			tc.now = now
		}
	}
}

// WithLifetime overrides the default token lifetime.
func WithLifetime(ttl time.Duration) CodecOption {
	return func(tc *TokenCodec) {
		if ttl > 0 {
			tc.ttl = ttl
		}
	}
}

// TokenCodec issues and verifies HMAC-signed JWTs. It holds no mutable state
// and is safe for concurrent use.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenCodec builds a codec bound to the process signing secret.
func NewTokenCodec(secret config.SigningSecret, opts ...CodecOption) (*TokenCodec, error) {
	if secret.Empty() {
		return nil, errors.New("signing secret is empty")
	}
	tc := &TokenCodec{
		secret: secret.Bytes(),
		ttl:    DefaultTokenLifetime,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(tc)
	}
	tc.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(tc.now),
	)
	return tc, nil
}

// Lifetime reports the validity window of issued tokens.
func (tc *TokenCodec) Lifetime() time.Duration {
	return tc.ttl
}

// ErrUnencodableIdentity is returned by Encode for an identity that Decode
// would reject: an empty subject or a role outside the closed set.
var ErrUnencodableIdentity = errors.New("identity has no subject or an unknown role")

// Encode signs a token for identity.
func (tc *TokenCodec) Encode(identity Identity) (IssuedToken, error) {
	if identity.Subject == "" || !identity.Role.Valid() {
		return IssuedToken{}, ErrUnencodableIdentity
	}
	issuedAt := tc.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(tc.ttl)
	claims := &Claims{
		Role: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	value, err := jwt.NewWithClaims(signingMethod, claims).SignedString(tc.secret)
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{Value: value, IssuedAt: issuedAt, ExpiresAt: expiresAt}, nil
}

// Decode verifies tokenStr and returns its claims. Failures carry exactly one of
// MALFORMED_TOKEN, INVALID_SIGNATURE or TOKEN_EXPIRED.
func (tc *TokenCodec) Decode(tokenStr string) (*Claims, error) {
	if err := tc.checkSignatureSegment(tokenStr); err != nil {
		return nil, err
	}
	claims := &Claims{}
	_, err := tc.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return tc.secret, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, apperrors.ErrMalformedToken
	}
	return claims, nil
}

// checkSignatureSegment judges a token whose header and claims parse on its
// signature alone: anything after the second dot that is not strict base64url
// is INVALID_SIGNATURE. Other framing errors are left to the parser.
func (tc *TokenCodec) checkSignatureSegment(tokenStr string) error {
	parts := strings.SplitN(tokenStr, ".", 3)
	if len(parts) != 3 {
		return nil
	}
	_, sigErr := tc.parser.DecodeSegment(parts[2])
	if sigErr == nil {
		return nil
	}
	if _, _, err := tc.parser.ParseUnverified(parts[0]+"."+parts[1]+".", &Claims{}); err != nil {
		return nil
	}
	return apperrors.ErrInvalidSignature.Wrap(sigErr)
}

// Signature is checked before claims, so an expired token with a bad
// signature reports INVALID_SIGNATURE.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return apperrors.ErrMalformedToken.Wrap(err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return apperrors.ErrInvalidSignature.Wrap(err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperrors.ErrTokenExpired.Wrap(err)
	default:
		return apperrors.ErrMalformedToken.Wrap(err)
	}
}
