package review

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("review: document not found")
	ErrIllegalTransition = errors.New("review: illegal status transition")
	ErrInvalidDecision   = errors.New("review: invalid decision")
	ErrInvalidDocument   = errors.New("review: invalid document")
	// ErrConflict is returned by stores when the expected version is stale.
	ErrConflict = errors.New("review: document changed concurrently")
	// ErrSuperseded is returned to a decision replaced by a newer one for the
	// same document before it was committed.
	ErrSuperseded  = errors.New("review: decision superseded by a newer decision")
	ErrEmptySelect = errors.New("review: nothing selected")
)

var transitions = map[Status][]Status{
	StatusPending:           {StatusApproved, StatusRejected, StatusLowConfidence, StatusRequiresAttention},
	StatusProcessing:        {StatusApproved, StatusRejected, StatusLowConfidence, StatusRequiresAttention},
	StatusLowConfidence:     {StatusApproved, StatusRejected, StatusPending, StatusRequiresAttention},
	StatusRequiresAttention: {StatusApproved, StatusRejected, StatusPending, StatusLowConfidence},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionError reports a status change the state machine forbids.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("review: cannot move document from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrIllegalTransition }

// CheckTransition returns a *TransitionError when from may not move to to.
func CheckTransition(from, to Status) error {
	if CanTransition(from, to) {
		return nil
	}
	return &TransitionError{From: from, To: to}
}

// Decision is a reviewer's verdict on a document.
type Decision string

const (
	DecisionApprove        Decision = "approve"
	DecisionReject         Decision = "reject"
	DecisionRequestChanges Decision = "request_changes"
)

// ParseDecision validates s.
func ParseDecision(s string) (Decision, error) {
	d := Decision(s)
	if _, ok := d.Target(); !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidDecision, s)
	}
	return d, nil
}

// Target is the status a decision moves a document to.
func (d Decision) Target() (Status, bool) {
	switch d {
	case DecisionApprove:
		return StatusApproved, true
	case DecisionReject:
		return StatusRejected, true
	case DecisionRequestChanges:
		return StatusRequiresAttention, true
	}
	return "", false
}

// Bulk reports whether d may be applied to a selection.
func (d Decision) Bulk() bool {
	return d == DecisionApprove || d == DecisionReject
}
