package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/rentdesk/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T) (*Issuer, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	return NewIssuer([]byte("super-secret"), clock), clock
}

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()
	iss, _ := newTestIssuer(t)

	tok, err := iss.IssueAccess("user-123", []Role{RoleAdmin}, time.Hour)
	require.NoError(t, err)

	sub, err := iss.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", sub)
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()
	iss, clock := newTestIssuer(t)

	tok, err := iss.IssueRefresh("u1", time.Minute)
	require.NoError(t, err)

	clock.Advance(time.Minute + time.Second)
	_, err = iss.Verify(tok)
	require.ErrorIs(t, err, common.ErrTokenExpired)
	require.ErrorIs(t, err, common.ErrTokenInvalid)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()
	iss, clock := newTestIssuer(t)

	tok, err := iss.IssueRefresh("u2", time.Hour)
	require.NoError(t, err)

	other := NewIssuer([]byte("wrong-secret"), clock)
	_, err = other.Verify(tok)
	require.ErrorIs(t, err, common.ErrTokenMalformed)
}

func TestVerify_TamperedPayload(t *testing.T) {
	t.Parallel()
	iss, _ := newTestIssuer(t)

	tok, err := iss.IssueAccess("u1", []Role{RoleAgent}, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC))},
		Roles:            []string{"ROLE_ADMIN"},
		Type:             TypeAccess,
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	fparts := strings.Split(forged, ".")

	_, err = iss.Verify(parts[0] + "." + fparts[1] + "." + parts[2])
	require.ErrorIs(t, err, common.ErrTokenMalformed)
}

func TestVerify_MalformedString(t *testing.T) {
	t.Parallel()
	iss, _ := newTestIssuer(t)

	for _, s := range []string{"", "not.a.jwt", "abc"} {
		_, err := iss.Verify(s)
		require.ErrorIs(t, err, common.ErrTokenMalformed, "input %q", s)
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()
	iss, _ := newTestIssuer(t)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))},
		Type:             TypeAccess,
	}).SignedString([]byte("super-secret"))
	require.NoError(t, err)

	_, err = iss.Verify(tok)
	require.ErrorIs(t, err, common.ErrTokenMalformed)
}

func TestIssue_TokensAreDistinct(t *testing.T) {
	t.Parallel()
	iss, _ := newTestIssuer(t)

	a, err := iss.IssueRefresh("u1", time.Hour)
	require.NoError(t, err)
	b, err := iss.IssueRefresh("u1", time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestIssueAccess_UnknownRole(t *testing.T) {
	t.Parallel()
	iss, _ := newTestIssuer(t)

	_, err := iss.IssueAccess("u1", []Role{"ROLE_ROOT"}, time.Hour)
	require.ErrorIs(t, err, common.ErrUnknownRole)
}

func TestAuthoritiesOf(t *testing.T) {
	t.Parallel()
	iss, _ := newTestIssuer(t)

	tok, err := iss.IssueAccess("u1", []Role{RoleAdmin, RoleAgent}, time.Hour)
	require.NoError(t, err)
	roles, err := iss.AuthoritiesOf(tok)
	require.NoError(t, err)
	require.Equal(t, []Role{RoleAdmin, RoleAgent}, roles)

	rt, err := iss.IssueRefresh("u1", time.Hour)
	require.NoError(t, err)
	roles, err = iss.AuthoritiesOf(rt)
	require.NoError(t, err)
	require.Empty(t, roles)

	_, err = iss.AuthoritiesOf("garbage")
	require.ErrorIs(t, err, common.ErrTokenMalformed)
}

func TestVerifyAccess(t *testing.T) {
	t.Parallel()
	iss, _ := newTestIssuer(t)

	at, err := iss.IssueAccess("u1", []Role{RoleManager}, time.Minute)
	require.NoError(t, err)
	p, err := iss.VerifyAccess(at)
	require.NoError(t, err)
	require.Equal(t, Principal{Subject: "u1", Roles: []Role{RoleManager}}, p)
	require.True(t, p.HasRole(RoleManager))
	require.False(t, p.HasRole(RoleAdmin))

	rt, err := iss.IssueRefresh("u1", time.Minute)
	require.NoError(t, err)
	_, err = iss.VerifyAccess(rt)
	require.ErrorIs(t, err, common.ErrTokenMalformed)
}

func TestParseRoles(t *testing.T) {
	t.Parallel()

	got, err := ParseRoles([]string{"ROLE_ADMIN", "ROLE_AGENT"})
	require.NoError(t, err)
	require.Equal(t, []Role{RoleAdmin, RoleAgent}, got)

	_, err = ParseRoles([]string{"ROLE_ADMIN", "admin"})
	require.ErrorIs(t, err, common.ErrUnknownRole)
}

func TestPrincipalContext(t *testing.T) {
	t.Parallel()

	_, ok := PrincipalFrom(context.Background())
	require.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{Subject: "u9"})
	p, ok := PrincipalFrom(ctx)
	require.True(t, ok)
	require.Equal(t, "u9", p.Subject)
}
