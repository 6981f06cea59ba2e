package auth

import (
	"errors"
	"regexp"
)

// subjectPattern defines the valid format for operator names:
// alphanumeric, dots, hyphens, underscores, 1-64 characters.
var subjectPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// IsValidSubject checks if an operator name meets format requirements.
func IsValidSubject(subject string) bool {
	return subjectPattern.MatchString(subject)
}

// Role represents an authorisation tier for the node API.
type Role string

const (
	// RoleViewer may read entries, the catalogue and snapshots.
	RoleViewer Role = "viewer"

	// RoleOperator may additionally write values, toggle entries and add
	// aliases.
	RoleOperator Role = "operator"
)

// ValidRoles is the set of roles a token may carry.
var ValidRoles = []Role{RoleViewer, RoleOperator}

// IsValidRole returns true if r is a known role.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// ParseRole converts a role name, as given on the command line, to a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !IsValidRole(r) {
		return "", ErrUnknownRole
	}
	return r, nil
}

// Sentinel errors for auth operations.
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrUnknownRole    = errors.New("unknown role")
	ErrInvalidSubject = errors.New("invalid subject")
	ErrNoSecret       = errors.New("jwt secret is not configured")
	ErrForbidden      = errors.New("insufficient permissions")
)
