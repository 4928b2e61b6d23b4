package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

const minHS512KeyLen = 64

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// Symmetric signs and verifies HS512 tokens with a shared secret.
type Symmetric struct {
	secret    []byte
	issuer    string
	audiences []string
	ttl       time.Duration
	clock     clocker
	ids       generator
	parser    *libJWT.Parser
}

func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < minHS512KeyLen {
		return nil, ErrSigningKeyTooShort
	}

	s := &Symmetric{
		secret:    cfg.Secret,
		issuer:    cfg.Issuer,
		audiences: cfg.Audiences,
		ttl:       cfg.TTL,
		clock:     cfg.Clock,
		ids:       cfg.UUID,
	}
	if s.clock == nil {
		s.clock = wallClock{}
	}

	opts := []libJWT.ParserOption{
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithTimeFunc(s.clock.Now),
	}
	if s.issuer != "" {
		opts = append(opts, libJWT.WithIssuer(s.issuer))
	}
	if len(s.audiences) > 0 {
		opts = append(opts, libJWT.WithAudience(s.audiences...))
	}
	s.parser = libJWT.NewParser(opts...)

	return s, nil
}

// Generate signs a token whose subject is clientID. A blank clientID is
// rejected with ErrInvalidToken.
func (s *Symmetric) Generate(clientID, clientName string) (string, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return "", fmt.Errorf("%w: client id is required", ErrInvalidToken)
	}

	now := s.clock.Now()
	clm := Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			Subject:   clientID,
			Issuer:    s.issuer,
			Audience:  s.audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(s.ttl)),
		},
		ClientName: strings.TrimSpace(clientName),
	}
	if s.ids != nil {
		clm.ID = s.ids.Generate()
	}

	return libJWT.NewWithClaims(libJWT.SigningMethodHS512, clm).SignedString(s.secret)
}

func (s *Symmetric) key(t *libJWT.Token) (any, error) {
	if t.Method != libJWT.SigningMethodHS512 {
		return nil, ErrInvalidSigningMethod
	}
	return s.secret, nil
}

// Verify checks signature, issuer, audience and time claims. Expired
// tokens yield ErrTokenExpired; every other failure wraps ErrInvalidToken.
func (s *Symmetric) Verify(token string) (Claims, error) {
	var clm Claims

	parsed, err := s.parser.ParseWithClaims(token, &clm, s.key)
	switch {
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	case !parsed.Valid || clm.Subject == "":
		return Claims{}, ErrInvalidToken
	}

	return clm, nil
}
