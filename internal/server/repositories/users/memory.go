package users

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/rentdesk/internal/common"
	"github.com/dmitrijs2005/rentdesk/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository is an in-process account directory used with the
// in-memory session store.
type MemoryRepository struct {
	mu     sync.RWMutex
	byName map[string]*models.User
	byID   map[string]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byName: make(map[string]*models.User),
		byID:   make(map[string]*models.User),
	}
}

// Add stores u, assigning an ID when it has none. Usernames are unique.
func (r *MemoryRepository) Add(u models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[u.UserName]; ok {
		return nil, fmt.Errorf("%w: username %q taken", common.ErrorConflict, u.UserName)
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	r.byName[u.UserName] = &u
	r.byID[u.ID] = &u
	c := u
	return &c, nil
}

func (r *MemoryRepository) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clone(r.byName[login])
}

func (r *MemoryRepository) GetUserByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clone(r.byID[id])
}

func clone(u *models.User) (*models.User, error) {
	if u == nil {
		return nil, common.ErrorNotFound
	}
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	return &c, nil
}
