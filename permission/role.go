package permission

import (
	"errors"
	"sort"
	"strings"
)

// Role identifies a user's privilege class. Values are the upper-case names
// persisted in the users table and carried in the access token "role" claim.
type Role string

const (
	// RoleClient is the default role assigned at sign-up.
	RoleClient Role = "CLIENT"
	// RoleManager can act on behalf of clients.
	RoleManager Role = "MANAGER"
	// RoleAdmin is the highest rank.
	RoleAdmin Role = "ADMIN"
)

// ErrUnknownRole is returned by Parse for names outside the rank table.
var ErrUnknownRole = errors.New("unknown role")

// ranks is the explicit ordering used for hierarchy comparisons. Gaps leave
// room for roles inserted between existing ones without renumbering.
var ranks = map[Role]int{
	RoleClient:  10,
	RoleManager: 50,
	RoleAdmin:   100,
}

// Parse normalizes name and returns the matching Role.
func Parse(name string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := ranks[r]; !ok {
		return "", ErrUnknownRole
	}
	return r, nil
}

// Valid reports whether r is part of the rank table.
func (r Role) Valid() bool {
	_, ok := ranks[r]
	return ok
}

// Rank returns the numeric rank of r, or -1 for unknown roles.
func (r Role) Rank() int {
	rank, ok := ranks[r]
	if !ok {
		return -1
	}
	return rank
}

// AtLeast reports whether r ranks at or above min. Unknown roles never pass.
func (r Role) AtLeast(min Role) bool {
	if !r.Valid() || !min.Valid() {
		return false
	}
	return r.Rank() >= min.Rank()
}

func (r Role) String() string {
	return string(r)
}

// AtLeast returns every known role whose rank is greater than or equal to
// min's rank, ordered from lowest to highest.
func AtLeast(min Role) []Role {
	out := make([]Role, 0, len(ranks))
	for r := range ranks {
		if r.AtLeast(min) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank() < out[j].Rank() })
	return out
}

// All returns every known role ordered by rank.
func All() []Role {
	return AtLeast(RoleClient)
}

// Allowed reports whether r is a member of set.
func Allowed(r Role, set []Role) bool {
	for _, candidate := range set {
		if candidate == r {
			return true
		}
	}
	return false
}
