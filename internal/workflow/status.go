package workflow

import "github.com/agroflow/agroflow-backend/internal/pkg/apperror"

// Status is the state of a single administrative level of a request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// IsDecision reports whether s is a state an administrator may set.
// Pending is the initial state only; no transition leads back to it.
func (s Status) IsDecision() bool {
	switch s {
	case StatusApproved, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// NewDecision validates an administrator's decision value.
func NewDecision(status string) (Status, error) {
	s := Status(status)
	if !s.IsDecision() {
		return "", apperror.New(apperror.ErrCodeValidation, "decision must be approved, accepted or rejected")
	}
	return s, nil
}

// Filter selects requests by their derived overall status.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterPending  Filter = "pending"
	FilterApproved Filter = "approved"
	FilterAccepted Filter = "accepted"
	FilterRejected Filter = "rejected"
)

// ParseFilter converts a query value into a Filter. Empty means all.
func ParseFilter(v string) (Filter, error) {
	if v == "" {
		return FilterAll, nil
	}
	f := Filter(v)
	switch f {
	case FilterAll, FilterPending, FilterApproved, FilterAccepted, FilterRejected:
		return f, nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "unknown status filter: "+v)
}
