package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSigningMethod is returned for tokens signed with anything but HS512.
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")
	// ErrSigningKeyTooShort is returned when the HS512 key is under 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")
	// ErrTokenExpired is returned for tokens past their expiry.
	ErrTokenExpired = errors.New("JWT token has expired")
	// ErrInvalidToken is returned for malformed tokens and failed claim checks.
	ErrInvalidToken = errors.New("invalid token")
)

// JWT issues and checks service tokens.
type JWT interface {
	Generate(clientID, clientName string) (string, error)
	Verify(token string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

// Config configures NewHS512. Clock defaults to the wall clock. Without a
// UUID generator tokens carry no jti.
type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	Clock     clocker
	UUID      generator
}

// Claims are the registered claims plus the caller's display name. The
// subject is the client id.
type Claims struct {
	jwt.RegisteredClaims
	ClientName string `json:"client_name,omitempty"`
}

func (c Claims) ClientID() string { return c.Subject }

type authKey struct{}

// GetAuth returns the claims of the authenticated caller, or nil.
func GetAuth(ctx context.Context) *Claims {
	if clm, ok := ctx.Value(authKey{}).(Claims); ok {
		return &clm
	}
	return nil
}

func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, authKey{}, clm)
}
