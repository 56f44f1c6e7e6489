package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/rentdesk/internal/common"
	"github.com/dmitrijs2005/rentdesk/internal/cryptox"
	"github.com/dmitrijs2005/rentdesk/internal/logging"
	"github.com/dmitrijs2005/rentdesk/internal/server/auth"
	"github.com/dmitrijs2005/rentdesk/internal/server/models"
	"github.com/dmitrijs2005/rentdesk/internal/server/repositories/users"
)

// Identity is a subject whose credentials were accepted.
type Identity struct {
	SubjectID string
	UserName  string
	Roles     []auth.Role
}

// CredentialVerifier checks username/password pairs and resolves the
// current authorities of a subject.
type CredentialVerifier interface {
	// Verify returns common.ErrInvalidCredentials for unknown users and wrong
	// passwords alike.
	Verify(ctx context.Context, username string, password []byte) (*Identity, error)
	// Lookup returns the current identity of subjectID, or
	// common.ErrInvalidCredentials when the subject no longer exists.
	Lookup(ctx context.Context, subjectID string) (*Identity, error)
}

// PasswordVerifier checks passwords against argon2id hashes in the users
// repository.
type PasswordVerifier struct {
	users users.Repository
	log   logging.Logger
	dummy string
}

func NewPasswordVerifier(repo users.Repository, log logging.Logger) *PasswordVerifier {
	return &PasswordVerifier{
		users: repo,
		log:   log.With("module", "credentials"),
		// unknown users still pay for one hash so timing does not reveal them
		dummy: cryptox.HashPassword(common.GenerateRandByteArray(16)),
	}
}

func (v *PasswordVerifier) Verify(ctx context.Context, username string, password []byte) (*Identity, error) {
	user, err := v.users.GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = cryptox.VerifyPassword(password, v.dummy)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	ok, err := cryptox.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password of %s: %w", user.ID, err)
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}
	return v.identity(ctx, user), nil
}

func (v *PasswordVerifier) Lookup(ctx context.Context, subjectID string) (*Identity, error) {
	user, err := v.users.GetUserByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return v.identity(ctx, user), nil
}

func (v *PasswordVerifier) identity(ctx context.Context, u *models.User) *Identity {
	roles := make([]auth.Role, 0, len(u.Roles))
	for _, s := range u.Roles {
		r, err := auth.ParseRole(s)
		if err != nil {
			v.log.Warn(ctx, "dropping unknown role", "subject", u.ID, "role", s)
			continue
		}
		roles = append(roles, r)
	}
	return &Identity{SubjectID: u.ID, UserName: u.UserName, Roles: roles}
}
