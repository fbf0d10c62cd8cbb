package domain

import (
	"fmt"
	"strings"

	"brokerage_backend/platform/apperr"
)

// Status is the lifecycle position of a lead.
type Status string

const (
	StatusNew        Status = "New"
	StatusAssigned   Status = "Assigned"
	StatusInProgress Status = "In Progress"
	StatusClosed     Status = "Closed"
	StatusRejected   Status = "Rejected"
)

var statusRank = map[Status]int{
	StatusNew:        0,
	StatusAssigned:   1,
	StatusInProgress: 2,
	StatusClosed:     3,
	StatusRejected:   3,
}

// ParseStatus accepts the canonical spelling case-insensitively, plus
// "in_progress" and "inprogress".
func ParseStatus(raw string) (Status, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer("_", " ", "-", " ").Replace(normalized)
	if normalized == "inprogress" {
		normalized = "in progress"
	}
	for s := range statusRank {
		if strings.ToLower(string(s)) == normalized {
			return s, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusClosed || s == StatusRejected
}

// ValidateTransition enforces New → Assigned → In Progress → {Closed | Rejected}.
// Forward skips are allowed and setting the current status again is a no-op.
func ValidateTransition(from, to Status) error {
	toRank, ok := statusRank[to]
	if !ok {
		return apperr.Validation(fmt.Sprintf("invalid status %q", to))
	}
	if from == to {
		return nil
	}
	if from.IsTerminal() {
		return apperr.Validation(fmt.Sprintf("status %q is terminal", from))
	}
	if toRank <= statusRank[from] {
		return apperr.Validation(fmt.Sprintf("cannot move status from %q back to %q", from, to))
	}
	return nil
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), b)
}
