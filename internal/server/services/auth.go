// Package services contains server-side business logic. AuthService is the
// authentication gateway: login, refresh token rotation and logout.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/rentdesk/internal/common"
	"github.com/dmitrijs2005/rentdesk/internal/logging"
	"github.com/dmitrijs2005/rentdesk/internal/server/auth"
	"github.com/dmitrijs2005/rentdesk/internal/server/config"
	"github.com/dmitrijs2005/rentdesk/internal/server/metrics"
	"github.com/dmitrijs2005/rentdesk/internal/server/sessions"
	"github.com/jonboulle/clockwork"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresIn  time.Duration
	RefreshExpiresAt time.Time
}

// LoginResult is a TokenPair plus who logged in.
type LoginResult struct {
	TokenPair
	SubjectID string
	UserName  string
	Roles     []auth.Role
}

// AuthService mints token pairs and keeps the session ledger in step.
type AuthService struct {
	issuer   *auth.Issuer
	store    sessions.Store
	verifier CredentialVerifier
	clock    clockwork.Clock
	metrics  *metrics.AuthMetrics
	log      logging.Logger

	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	revokeFamilyOnReuse          bool
}

// NewAuthService wires the gateway. m may be nil.
func NewAuthService(cfg *config.Config, issuer *auth.Issuer, store sessions.Store, verifier CredentialVerifier,
	clock clockwork.Clock, m *metrics.AuthMetrics, log logging.Logger) *AuthService {
	return &AuthService{
		issuer:                       issuer,
		store:                        store,
		verifier:                     verifier,
		clock:                        clock,
		metrics:                      m,
		log:                          log.With("module", "auth"),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		revokeFamilyOnReuse:          cfg.RevokeFamilyOnReuse,
	}
}

// RefreshTokenValidity is the refresh TTL, used for the cookie Max-Age.
func (s *AuthService) RefreshTokenValidity() time.Duration {
	return s.refreshTokenValidityDuration
}

// Login checks credentials and opens a session, closing any previous one.
func (s *AuthService) Login(ctx context.Context, username, password string) (res *LoginResult, err error) {
	defer func() { s.metrics.Observe(metrics.OpLogin, err) }()

	id, err := s.verifier.Verify(ctx, username, []byte(password))
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			s.log.Info(ctx, "login rejected", "username", username)
		}
		return nil, err
	}

	pair, err := s.mintPair(id.SubjectID, id.Roles)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.StoreOrRotate(ctx, id.SubjectID, pair.RefreshToken, pair.RefreshExpiresAt); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "login succeeded", "subject", id.SubjectID)
	return &LoginResult{TokenPair: *pair, SubjectID: id.SubjectID, UserName: id.UserName, Roles: id.Roles}, nil
}

// Refresh exchanges a live refresh token for a new pair. The presented token
// is revoked in the same step.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (pair *TokenPair, err error) {
	defer func() { s.metrics.Observe(metrics.OpRefresh, err) }()

	subject, err := s.issuer.Verify(refreshToken)
	if err != nil {
		return nil, err
	}

	valid, err := s.store.IsValid(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, s.rejection(ctx, refreshToken, subject)
	}

	id, err := s.verifier.Lookup(ctx, subject)
	if err != nil {
		return nil, err
	}

	pair, err = s.mintPair(subject, id.Roles)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Rotate(ctx, refreshToken, pair.RefreshToken, pair.RefreshExpiresAt, subject); err != nil {
		if errors.Is(err, common.ErrTokenRevoked) {
			s.onReuse(ctx, subject)
		}
		return nil, err
	}

	s.log.Debug(ctx, "refresh token rotated", "subject", subject)
	return pair, nil
}

// rejection explains why the ledger refused token.
func (s *AuthService) rejection(ctx context.Context, token, subject string) error {
	rec, err := s.store.Find(ctx, token)
	if err != nil && !errors.Is(err, common.ErrTokenNotFound) {
		return err
	}
	reason := sessions.CheckUsable(rec, subject, s.clock.Now())
	if reason == nil {
		// changed between the two reads; treat as gone
		reason = common.ErrTokenNotFound
	}
	if errors.Is(reason, common.ErrTokenRevoked) {
		s.onReuse(ctx, subject)
	}
	return reason
}

func (s *AuthService) onReuse(ctx context.Context, subject string) {
	s.log.Warn(ctx, "revoked refresh token presented", "subject", subject)
	if !s.revokeFamilyOnReuse {
		return
	}
	if err := s.store.RevokeAllForSubject(ctx, subject); err != nil {
		s.log.Error(ctx, "revoke sessions after reuse", "subject", subject, "error", err)
		return
	}
	s.metrics.Revoked("reuse")
}

// Logout revokes refreshToken. Empty, unknown, malformed or already revoked
// tokens are not reported; storage failures are.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) (err error) {
	defer func() { s.metrics.Observe(metrics.OpLogout, err) }()

	if refreshToken == "" {
		return nil
	}
	flipped, err := s.store.Revoke(ctx, refreshToken)
	if err != nil {
		s.log.Error(ctx, "logout revoke failed", "error", err)
		return fmt.Errorf("logout: %w", err)
	}
	if flipped {
		s.metrics.Revoked("logout")
	}
	return nil
}

// Authenticate validates a bearer access token for request authenticators.
func (s *AuthService) Authenticate(token string) (auth.Principal, error) {
	return s.issuer.VerifyAccess(token)
}

func (s *AuthService) mintPair(subject string, roles []auth.Role) (*TokenPair, error) {
	access, err := s.issuer.IssueAccess(subject, roles, s.accessTokenValidityDuration)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issuer.IssueRefresh(subject, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresIn:  s.accessTokenValidityDuration,
		RefreshExpiresAt: s.clock.Now().Add(s.refreshTokenValidityDuration),
	}, nil
}
