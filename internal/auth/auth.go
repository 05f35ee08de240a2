package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultIssuer = "adala-review"

var errMissingSecret = errors.New("auth secret is not configured")

// Claims represents JWT claims used across the service.
type Claims struct {
	Role        string `json:"role"`
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and validates HS256 session tokens and tracks logged-out sessions.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // session id -> token expiry
}

// IssuerOption configures an Issuer.
type IssuerOption func(*Issuer)

// WithIssuerName overrides the iss claim.
func WithIssuerName(name string) IssuerOption {
	return func(i *Issuer) {
		if name = strings.TrimSpace(name); name != "" {
			i.issuer = name
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) IssuerOption {
	return func(i *Issuer) {
		if fn != nil {
			i.now = fn
		}
	}
}

// NewIssuer returns an Issuer signing with secret; tokens live for ttl.
func NewIssuer(secret string, ttl time.Duration, opts ...IssuerOption) (*Issuer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errMissingSecret
	}
	if ttl <= 0 {
		return nil, errors.New("ttl must be greater than zero")
	}
	i := &Issuer{
		secret:  []byte(secret),
		issuer:  defaultIssuer,
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue signs a token for p. The token id doubles as the session id.
func (i *Issuer) Issue(p Principal) (string, Principal, time.Time, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return "", Principal{}, time.Time{}, errors.New("principal name is required")
	}
	if _, ok := ParseRole(string(p.Role)); !ok {
		return "", Principal{}, time.Time{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, p.Role)
	}

	now := i.now().UTC()
	exp := now.Add(i.ttl)
	p.SessionID = uuid.NewString()
	claims := Claims{
		Role:        string(p.Role),
		DisplayName: p.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        p.SessionID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", Principal{}, time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, p, exp, nil
}

// Parse verifies signature, claims and revocation and returns the principal.
func (i *Issuer) Parse(token string) (Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Principal{}, ErrInvalidToken
	}
	if err := i.validateClaims(claims); err != nil {
		return Principal{}, ErrInvalidToken
	}
	role, _ := ParseRole(claims.Role)
	if i.isRevoked(claims.ID) {
		return Principal{}, ErrInvalidToken
	}
	return Principal{
		Name:        claims.Subject,
		DisplayName: claims.DisplayName,
		Role:        role,
		SessionID:   claims.ID,
	}, nil
}

// Revoke ends the session identified by sessionID (logout).
func (i *Issuer) Revoke(sessionID string) {
	if sessionID == "" {
		return
	}
	now := i.now()
	i.mu.Lock()
	defer i.mu.Unlock()
	for id, exp := range i.revoked {
		if now.After(exp) {
			delete(i.revoked, id)
		}
	}
	i.revoked[sessionID] = now.Add(i.ttl)
}

func (i *Issuer) isRevoked(sessionID string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.revoked[sessionID]
	return ok
}

func (i *Issuer) validateClaims(claims *Claims) error {
	if claims.Issuer != i.issuer {
		return fmt.Errorf("unexpected issuer: %s", claims.Issuer)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	if strings.TrimSpace(claims.ID) == "" {
		return errors.New("session id missing")
	}
	if _, ok := ParseRole(claims.Role); !ok {
		return errors.New("unknown role")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return errors.New("timestamps missing")
	}
	now := i.now().UTC()
	// Allow a small clock skew of 5 seconds when validating issued-at.
	if claims.IssuedAt.Time.After(now.Add(5 * time.Second)) {
		return errors.New("token issued in the future")
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return errors.New("token expiry precedes issued-at")
	}
	return nil
}
