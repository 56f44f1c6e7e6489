// Package auth mints and verifies the signed access and refresh tokens and
// carries the authenticated principal through request contexts.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/rentdesk/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Token kinds carried in the typ claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims is the JWT payload for both token kinds.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
	Type  string   `json:"typ"`
}

// Issuer signs tokens with a single HMAC-SHA256 key. It holds no state
// besides the key and the clock.
type Issuer struct {
	secret []byte
	clock  clockwork.Clock
}

// NewIssuer returns an Issuer. A nil clock means the wall clock.
func NewIssuer(secret []byte, clock clockwork.Clock) *Issuer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Issuer{secret: secret, clock: clock}
}

// IssueAccess mints an access token carrying roles. Unknown roles are refused.
func (i *Issuer) IssueAccess(subject string, roles []Role, ttl time.Duration) (string, error) {
	for _, r := range roles {
		if !r.Valid() {
			return "", fmt.Errorf("%w: %q", common.ErrUnknownRole, string(r))
		}
	}
	return i.sign(subject, roleStrings(roles), TypeAccess, ttl)
}

// IssueRefresh mints a refresh token. It carries no roles.
func (i *Issuer) IssueRefresh(subject string, ttl time.Duration) (string, error) {
	return i.sign(subject, nil, TypeRefresh, ttl)
}

func (i *Issuer) sign(subject string, roles []string, typ string, ttl time.Duration) (string, error) {
	now := i.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Roles: roles,
		Type:  typ,
	})

	s, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// Verify checks signature and expiry and returns the subject.
// It fails with common.ErrTokenExpired or common.ErrTokenMalformed.
func (i *Issuer) Verify(token string) (string, error) {
	c, err := i.parse(token)
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}

// VerifyAccess verifies an access token and returns the caller it names.
// Refresh tokens are rejected as malformed.
func (i *Issuer) VerifyAccess(token string) (Principal, error) {
	c, err := i.parse(token)
	if err != nil {
		return Principal{}, err
	}
	if c.Type != TypeAccess {
		return Principal{}, fmt.Errorf("%w: not an access token", common.ErrTokenMalformed)
	}
	return Principal{Subject: c.Subject, Roles: knownOnly(c.Roles)}, nil
}

// AuthoritiesOf returns the roles embedded in token without checking its
// signature. Callers must Verify first. A token without roles yields an
// empty slice.
func (i *Issuer) AuthoritiesOf(token string) ([]Role, error) {
	c := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, c); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrTokenMalformed, err)
	}
	return knownOnly(c.Roles), nil
}

func (i *Issuer) parse(token string) (*Claims, error) {
	c := &Claims{}
	t, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrTokenMalformed, err)
	}
	if !t.Valid || c.Subject == "" {
		return nil, common.ErrTokenMalformed
	}
	return c, nil
}
