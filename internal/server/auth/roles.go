package auth

import (
	"fmt"

	"github.com/dmitrijs2005/rentdesk/internal/common"
)

// Role is an authority granted to a subject. The set is closed.
type Role string

const (
	RoleAdmin   Role = "ROLE_ADMIN"
	RoleManager Role = "ROLE_MANAGER"
	RoleAgent   Role = "ROLE_AGENT"
)

var knownRoles = map[Role]struct{}{
	RoleAdmin:   {},
	RoleManager: {},
	RoleAgent:   {},
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := knownRoles[r]
	return ok
}

func (r Role) String() string { return string(r) }

// ParseRole converts s into a Role or returns common.ErrUnknownRole.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", common.ErrUnknownRole, s)
	}
	return r, nil
}

// ParseRoles converts every entry of ss, failing on the first unknown one.
func ParseRoles(ss []string) ([]Role, error) {
	out := make([]Role, 0, len(ss))
	for _, s := range ss {
		r, err := ParseRole(s)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// knownOnly drops anything outside the known set.
func knownOnly(ss []string) []Role {
	out := make([]Role, 0, len(ss))
	for _, s := range ss {
		if r := Role(s); r.Valid() {
			out = append(out, r)
		}
	}
	return out
}

func roleStrings(rs []Role) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}
