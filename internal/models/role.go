package models

import "fmt"

// Role is the closed set of account roles. The zero value is not a valid role.
type Role uint8

const (
	RoleAdmin Role = iota + 1
	RoleInterpreter
	RoleClient
	RoleSuperAdmin
)

// String returns the canonical storage form of the role
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "ADMIN"
	case RoleInterpreter:
		return "INTERPRETER"
	case RoleClient:
		return "CLIENT"
	case RoleSuperAdmin:
		return "SUPER_ADMIN"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// IsValid reports whether r is one of the declared roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleInterpreter, RoleClient, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// ParseRole converts a stored or transmitted role name into a Role
func ParseRole(s string) (Role, error) {
	switch s {
	case "ADMIN":
		return RoleAdmin, nil
	case "INTERPRETER":
		return RoleInterpreter, nil
	case "CLIENT":
		return RoleClient, nil
	case "SUPER_ADMIN":
		return RoleSuperAdmin, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("cannot marshal invalid role %d", uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RoleSet is an allow-list of roles used by the role gate
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet from the given roles
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Contains reports whether r is in the set
func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}
