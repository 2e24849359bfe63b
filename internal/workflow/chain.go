package workflow

import "time"

// LevelState is the recorded decision of one administrative level.
type LevelState struct {
	Status    Status     `json:"status"`
	AdminName *string    `json:"admin_name,omitempty"`
	Feedback  *string    `json:"feedback,omitempty"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
}

// Chain holds the five level states of a request, indexed by Level rank.
type Chain [LevelCount]LevelState

// NewChain returns a chain with every level pending.
func NewChain() Chain {
	var c Chain
	for i := range c {
		c[i].Status = StatusPending
	}
	return c
}

// Overall derives the status shown to end users. Priority order:
// any rejected wins, then any accepted, then any approved, else pending.
// Always recomputed, never stored.
func (c Chain) Overall() Status {
	overall := StatusPending
	for _, state := range c {
		switch state.Status {
		case StatusRejected:
			return StatusRejected
		case StatusAccepted:
			overall = StatusAccepted
		case StatusApproved:
			if overall != StatusAccepted {
				overall = StatusApproved
			}
		}
	}
	return overall
}

// CanAct reports whether the given level may leave pending. A level acts
// only while its own state is pending and its predecessor has approved;
// kebele has no predecessor. A rejection anywhere upstream blocks every
// later level transitively, since the predecessor can never read approved.
func (c Chain) CanAct(level Level) bool {
	if !level.IsValid() {
		return false
	}
	if c[level].Status != StatusPending {
		return false
	}
	prev, ok := level.Prev()
	if !ok {
		return true
	}
	return c[prev].Status == StatusApproved
}

// CanEditOrDelete reports whether the owning farmer may still change or
// remove the request: true only while no level has acted.
func (c Chain) CanEditOrDelete() bool {
	for _, state := range c {
		if state.Status != StatusPending {
			return false
		}
	}
	return true
}

// AcceptedLevel returns the first level whose state is accepted.
func (c Chain) AcceptedLevel() (Level, bool) {
	for i, state := range c {
		if state.Status == StatusAccepted {
			return Level(i), true
		}
	}
	return 0, false
}

// CanConfirmDelivery reports whether the farmer may confirm receipt.
func (c Chain) CanConfirmDelivery() bool {
	_, ok := c.AcceptedLevel()
	return ok
}

// RejectedLevel returns the first level whose state is rejected.
func (c Chain) RejectedLevel() (Level, bool) {
	for i, state := range c {
		if state.Status == StatusRejected {
			return Level(i), true
		}
	}
	return 0, false
}

// Matches reports whether the chain satisfies a status filter. The filter
// semantics follow Overall exactly, so dashboards and the list endpoint can
// never drift from the derived status.
func (c Chain) Matches(f Filter) bool {
	if f == FilterAll {
		return true
	}
	return c.Overall() == Status(f)
}
