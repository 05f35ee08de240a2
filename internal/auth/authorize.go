package auth

// Principal is the authenticated caller of a request.
type Principal struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Role        Role   `json:"role"`
	SessionID   string `json:"session_id,omitempty"`
}

// HasPermission reports whether the principal's role grants key.
func (p Principal) HasPermission(key string) bool {
	return RoleHasPermission(p.Role, key)
}

// Label returns the display name, falling back to the login name.
func (p Principal) Label() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Name
}
