package users

import (
	"context"

	"github.com/dmitrijs2005/rentdesk/internal/server/models"
)

// Repository is the read side of the account directory. Both lookups
// return common.ErrorNotFound for unknown users.
type Repository interface {
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
