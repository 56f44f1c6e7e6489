package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/rentdesk/internal/common"
	"github.com/stretchr/testify/require"
)

func TestScenario_RotateByAnotherSubjectIsForbidden(t *testing.T) {
	s, clock := newMemory(t)
	ctx := context.Background()

	_, err := s.StoreOrRotate(ctx, "alice", "t1", clock.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = s.Rotate(ctx, "t1", "t2", clock.Now().Add(time.Hour), "bob")
	require.ErrorIs(t, err, common.ErrTokenOwnershipMismatch)
	require.NotErrorIs(t, err, common.ErrTokenInvalid)

	ok, _ := s.IsValid(ctx, "t1")
	require.True(t, ok)
	_, err = s.Find(ctx, "t2")
	require.ErrorIs(t, err, common.ErrTokenNotFound)
}

func TestScenario_SecondLoginSupersedesFirst(t *testing.T) {
	s, clock := newMemory(t)
	ctx := context.Background()
	day := clock.Now().Add(24 * time.Hour)

	_, err := s.StoreOrRotate(ctx, "alice", "t1", day)
	require.NoError(t, err)
	_, err = s.StoreOrRotate(ctx, "alice", "t2", day)
	require.NoError(t, err)

	ok, _ := s.IsValid(ctx, "t1")
	require.False(t, ok)
	ok, _ = s.IsValid(ctx, "t2")
	require.True(t, ok)
}

func TestScenario_PreExpiredTokenCannotRotate(t *testing.T) {
	s, clock := newMemory(t)
	ctx := context.Background()

	_, err := s.StoreOrRotate(ctx, "alice", "t1", clock.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = s.Rotate(ctx, "t1", "t2", clock.Now().Add(24*time.Hour), "alice")
	require.ErrorIs(t, err, common.ErrTokenExpired)

	_, err = s.Find(ctx, "t2")
	require.ErrorIs(t, err, common.ErrTokenNotFound)
	require.Equal(t, 1, s.Len())
}

func TestRevocationIsMonotonic(t *testing.T) {
	s, clock := newMemory(t)
	ctx := context.Background()

	_, err := s.StoreOrRotate(ctx, "alice", "t1", clock.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = s.Revoke(ctx, "t1")
	require.NoError(t, err)

	// nothing afterwards brings it back
	_, err = s.StoreOrRotate(ctx, "alice", "t2", clock.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = s.Rotate(ctx, "t2", "t3", clock.Now().Add(time.Hour), "alice")
	require.NoError(t, err)
	require.NoError(t, s.RevokeAllForSubject(ctx, "alice"))

	ok, _ := s.IsValid(ctx, "t1")
	require.False(t, ok)
	_, err = s.Rotate(ctx, "t1", "t4", clock.Now().Add(time.Hour), "alice")
	require.ErrorIs(t, err, common.ErrTokenRevoked)
}
