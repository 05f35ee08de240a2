package auth

import "strings"

// Role gates navigation entries and actions.
type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleReviewer  Role = "Reviewer"
	RolePublisher Role = "Publisher"
)

// Roles lists every supported role.
var Roles = []Role{RoleAdmin, RoleReviewer, RolePublisher}

// ParseRole matches a role name case-insensitively.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	for _, r := range Roles {
		if strings.EqualFold(string(r), s) {
			return r, true
		}
	}
	return "", false
}

// Key is the lower-case form used in catalog keys and claims.
func (r Role) Key() string { return strings.ToLower(string(r)) }

// User is a configured account able to sign in.
type User struct {
	Name         string `json:"name" mapstructure:"name"`
	DisplayName  string `json:"display_name" mapstructure:"display_name"`
	Role         Role   `json:"role" mapstructure:"role"`
	PasswordHash string `json:"-" mapstructure:"password_hash"`
}
