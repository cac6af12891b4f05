package tokenx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs. Access tokens cover a working session on the platform,
// refresh tokens cover the "stay signed in" window.
const (
	DefaultAccessTokenTTL  = 8 * time.Hour
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

var (
	ErrMalformed = errors.New("tokenx: malformed token")
	ErrExpired   = errors.New("tokenx: token expired")
	ErrSignature = errors.New("tokenx: signature mismatch")
	ErrNoSecret  = errors.New("tokenx: signing secret not configured")

	// ErrNoSubject is a malformed-token error: a validly signed token with no
	// subject identity is never trusted, guarding against minimal or legacy
	// tokens minted without one.
	ErrNoSubject = fmt.Errorf("%w: missing subject claim", ErrMalformed)
)

// Claims is the wire shape of our tokens. Subject carries the user id; the
// legacy UserID field is still accepted on verify for tokens minted before
// the claim layout was consolidated, but new tokens only ever set Subject.
type Claims struct {
	jwt.RegisteredClaims

	// LegacyUserID mirrors the old "userId" claim. Read-only fallback.
	LegacyUserID string `json:"userId,omitempty"`

	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role,omitempty"`
}

// Config holds the two signing secrets and TTLs. Access and refresh tokens
// are signed with distinct secrets so compromise of one class cannot forge
// the other.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration // defaults to DefaultAccessTokenTTL
	RefreshTTL    time.Duration // defaults to DefaultRefreshTokenTTL
	Issuer        string
}

// Codec issues and verifies signed bearer tokens. Pure functions over the
// secret configuration; safe for concurrent use.
type Codec struct {
	cfg Config
}

// NewCodec validates the secret configuration up front. Missing secrets are a
// deployment error and must be caught at startup, not per request.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, ErrNoSecret
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTokenTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTokenTTL
	}
	return &Codec{cfg: cfg}, nil
}

// AccessTTL reports the configured access-token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.cfg.AccessTTL }

// IssueAccess signs a short-lived access token for p.
func (c *Codec) IssueAccess(p Principal) (string, error) {
	return c.issue(p, c.cfg.AccessSecret, c.cfg.AccessTTL)
}

// IssueRefresh signs a long-lived refresh token for p.
func (c *Codec) IssueRefresh(p Principal) (string, error) {
	return c.issue(p, c.cfg.RefreshSecret, c.cfg.RefreshTTL)
}

func (c *Codec) issue(p Principal, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.cfg.Issuer,
			Subject:   p.SubjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		DisplayName: p.DisplayName,
		Email:       p.Email,
		Role:        string(p.Role),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// VerifyAccess validates an access token and returns the canonical Principal.
func (c *Codec) VerifyAccess(token string) (Principal, error) {
	return c.verify(token, c.cfg.AccessSecret)
}

// VerifyRefresh validates a refresh token with the refresh secret.
func (c *Codec) VerifyRefresh(token string) (Principal, error) {
	return c.verify(token, c.cfg.RefreshSecret)
}

// verify checks the signature over the full encoded payload, rejects expired
// or not-yet-valid tokens, and normalizes the subject claim. A token that is
// validly signed but carries no subject identity is treated as malformed.
func (c *Codec) verify(token string, secret []byte) (Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrSignature
		}
		return secret, nil
	})
	if err != nil {
		return Principal{}, mapJWTError(err)
	}

	subject := claims.Subject
	if subject == "" {
		subject = claims.LegacyUserID
	}
	if subject == "" {
		return Principal{}, ErrNoSubject
	}

	p := Principal{
		SubjectID:   subject,
		DisplayName: claims.DisplayName,
		Email:       claims.Email,
		Role:        ParseRole(claims.Role),
	}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrSignature):
		return ErrSignature
	default:
		return ErrMalformed
	}
}
