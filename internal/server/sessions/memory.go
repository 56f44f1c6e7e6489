package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/rentdesk/internal/common"
	"github.com/dmitrijs2005/rentdesk/internal/server/models"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// MemoryStore is an in-process Store for development and tests.
// Contents are lost on restart.
type MemoryStore struct {
	clock clockwork.Clock

	mu      sync.RWMutex
	byToken map[string]*models.RefreshToken
	active  map[string]string // subject -> live token
}

func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	return &MemoryStore{
		clock:   clock,
		byToken: make(map[string]*models.RefreshToken),
		active:  make(map[string]string),
	}
}

func (s *MemoryStore) StoreOrRotate(_ context.Context, subject, token string, expiresAt time.Time) (*models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceActiveLocked(subject, token, expiresAt)
}

func (s *MemoryStore) replaceActiveLocked(subject, token string, expiresAt time.Time) (*models.RefreshToken, error) {
	if _, dup := s.byToken[token]; dup {
		return nil, fmt.Errorf("store refresh token: %w: token already recorded", common.ErrorConflict)
	}
	s.revokeSubjectLocked(subject)

	rec := &models.RefreshToken{
		ID:        uuid.NewString(),
		SubjectID: subject,
		Token:     token,
		IssuedAt:  s.clock.Now(),
		ExpiresAt: expiresAt,
	}
	s.byToken[token] = rec
	s.active[subject] = token
	c := *rec
	return &c, nil
}

func (s *MemoryStore) revokeSubjectLocked(subject string) {
	if tok, ok := s.active[subject]; ok {
		s.byToken[tok].Revoked = true
		delete(s.active, subject)
	}
}

func (s *MemoryStore) IsValid(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byToken[token]
	return ok && rec.UsableAt(s.clock.Now()), nil
}

func (s *MemoryStore) Rotate(_ context.Context, oldToken, newToken string, newExpiresAt time.Time, subject string) (*models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := CheckUsable(s.byToken[oldToken], subject, s.clock.Now()); err != nil {
		return nil, err
	}
	if _, dup := s.byToken[newToken]; dup {
		return nil, fmt.Errorf("rotate refresh token: %w: token already recorded", common.ErrorConflict)
	}
	s.byToken[oldToken].Revoked = true
	if s.active[subject] == oldToken {
		delete(s.active, subject)
	}
	return s.replaceActiveLocked(subject, newToken, newExpiresAt)
}

func (s *MemoryStore) Revoke(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byToken[token]
	if !ok || rec.Revoked {
		return false, nil
	}
	rec.Revoked = true
	if s.active[rec.SubjectID] == token {
		delete(s.active, rec.SubjectID)
	}
	return true, nil
}

func (s *MemoryStore) RevokeAllForSubject(_ context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revokeSubjectLocked(subject)
	return nil
}

func (s *MemoryStore) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byToken[token]
	if !ok {
		return nil, common.ErrTokenNotFound
	}
	c := *rec
	return &c, nil
}

// ActiveCount returns how many live rows subject has. Always 0 or 1.
func (s *MemoryStore) ActiveCount(subject string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, rec := range s.byToken {
		if rec.SubjectID == subject && !rec.Revoked {
			n++
		}
	}
	return n
}

// Len returns the number of recorded rows, revoked ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byToken)
}
