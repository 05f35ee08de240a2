package auth

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Directory is the set of accounts allowed to sign in.
type Directory struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewDirectory validates users and indexes them by lower-cased name.
func NewDirectory(users []User) (*Directory, error) {
	d := &Directory{users: make(map[string]User, len(users))}
	for _, u := range users {
		if err := d.Add(u); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Add registers u; names are unique case-insensitively.
func (d *Directory) Add(u User) error {
	name := strings.TrimSpace(u.Name)
	if name == "" {
		return fmt.Errorf("%w: user name is required", ErrInvalidInput)
	}
	role, ok := ParseRole(string(u.Role))
	if !ok {
		return fmt.Errorf("%w: unknown role %q for user %s", ErrInvalidInput, u.Role, name)
	}
	if u.PasswordHash == "" {
		return fmt.Errorf("%w: password hash missing for user %s", ErrInvalidInput, name)
	}
	u.Name = name
	u.Role = role
	key := strings.ToLower(name)

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.users[key]; exists {
		return fmt.Errorf("%w: duplicate user %s", ErrInvalidInput, name)
	}
	d.users[key] = u
	return nil
}

// Find looks a user up by name.
func (d *Directory) Find(name string) (User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// Authenticate verifies credentials and returns the principal for a new session.
// Every failure is reported as ErrUnauthorized.
func (d *Directory) Authenticate(name, password string) (Principal, error) {
	u, err := d.Find(name)
	if err != nil {
		burnCompare(password)
		return Principal{}, ErrUnauthorized
	}
	if password == "" || VerifyPassword(u.PasswordHash, password) != nil {
		return Principal{}, ErrUnauthorized
	}
	return Principal{Name: u.Name, DisplayName: u.DisplayName, Role: u.Role}, nil
}

// Users lists accounts sorted by name, without password hashes.
func (d *Directory) Users() []User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]User, 0, len(d.users))
	for _, u := range d.users {
		u.PasswordHash = ""
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
