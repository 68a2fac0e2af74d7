package lifecycle

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoTargetStatuses is returned when a wait is started with an empty
// target set.
var ErrNoTargetStatuses = errors.New("no target statuses")

// TerminalStateError ends a wait immediately: the entity reached a failure
// state the backend will never advance on its own. Callers decide whether
// the state permits an explicit retry.
type TerminalStateError struct {
	Entity string // "checkbook" | "allocation" | "withdraw_request"
	ID     string
	Status string
	Detail string // backend error text when available
}

func (e *TerminalStateError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s entered terminal state %q: %s", e.Entity, e.ID, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s entered terminal state %q", e.Entity, e.ID, e.Status)
}

// TimeoutError reports that the wait budget elapsed. LastStatus is the most
// recently observed status so callers can tell a stuck entity from one that
// was never fetched.
type TimeoutError struct {
	Entity     string
	ID         string
	Target     string
	LastStatus string // empty if no poll ever succeeded
	Elapsed    time.Duration
}

func (e *TimeoutError) Error() string {
	if e.LastStatus == "" {
		return fmt.Sprintf("timed out after %v waiting for %s %s to reach %q (no status observed)",
			e.Elapsed, e.Entity, e.ID, e.Target)
	}
	return fmt.Sprintf("timed out after %v waiting for %s %s to reach %q (last status %q)",
		e.Elapsed, e.Entity, e.ID, e.Target, e.LastStatus)
}
