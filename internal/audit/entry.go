// Package audit keeps the append-only trail of review, sign-in and settings events.
package audit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"adala.org/internal/auth"
	"adala.org/internal/locale"
)

var (
	ErrNotFound     = errors.New("audit: entry not found")
	ErrInvalidEntry = errors.New("audit: invalid entry")
	ErrDuplicate    = errors.New("audit: duplicate entry id")
)

// ActionType classifies an entry for filtering and summaries.
type ActionType string

const (
	ActionView     ActionType = "view"
	ActionApprove  ActionType = "approve"
	ActionReject   ActionType = "reject"
	ActionUpload   ActionType = "upload"
	ActionEdit     ActionType = "edit"
	ActionDelete   ActionType = "delete"
	ActionLogin    ActionType = "login"
	ActionSettings ActionType = "settings"
)

// ActionTypes lists every action type in display order.
var ActionTypes = []ActionType{
	ActionView, ActionApprove, ActionReject, ActionUpload,
	ActionEdit, ActionDelete, ActionLogin, ActionSettings,
}

// Valid reports whether a is a known action type.
func (a ActionType) Valid() bool {
	for _, t := range ActionTypes {
		if t == a {
			return true
		}
	}
	return false
}

// Security reports whether entries of this type count as security events.
func (a ActionType) Security() bool {
	return a == ActionLogin || a == ActionSettings || a == ActionDelete
}

// Entry is one immutable audit record.
type Entry struct {
	ID           string      `json:"id" yaml:"id"`
	Timestamp    time.Time   `json:"timestamp" yaml:"timestamp"`
	User         string      `json:"user" yaml:"user"`
	UserRole     auth.Role   `json:"user_role" yaml:"user_role"`
	Action       string      `json:"action" yaml:"action"`
	ActionType   ActionType  `json:"action_type" yaml:"action_type"`
	DocumentID   string      `json:"document_id,omitempty" yaml:"document_id"`
	DocumentName string      `json:"document_name,omitempty" yaml:"document_name"`
	Details      locale.Text `json:"details" yaml:"details"`
	IPAddress    string      `json:"ip_address,omitempty" yaml:"ip_address"`
	SessionID    string      `json:"session_id,omitempty" yaml:"session_id"`
}

// Validate checks the fields every stored entry must carry.
func (e Entry) Validate() error {
	switch {
	case strings.TrimSpace(e.ID) == "":
		return fmt.Errorf("%w: id is required", ErrInvalidEntry)
	case e.Timestamp.IsZero():
		return fmt.Errorf("%w: timestamp is required", ErrInvalidEntry)
	case strings.TrimSpace(e.User) == "":
		return fmt.Errorf("%w: user is required", ErrInvalidEntry)
	case !e.ActionType.Valid():
		return fmt.Errorf("%w: unknown action type %q", ErrInvalidEntry, e.ActionType)
	}
	if e.UserRole != "" {
		if _, ok := auth.ParseRole(string(e.UserRole)); !ok {
			return fmt.Errorf("%w: unknown role %q", ErrInvalidEntry, e.UserRole)
		}
	}
	return nil
}
