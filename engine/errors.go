package engine

import (
	"fmt"

	"github.com/lchant/loom/person"
)

// IneligibleActionError reports a requested action whose eligibility
// predicate fails for the current state. The run is left untouched, so
// the caller may pick another action and retry.
type IneligibleActionError struct {
	Action person.Action
	Age    int
	Reason string
}

func (e *IneligibleActionError) Error() string {
	return fmt.Sprintf("action %s ineligible at age %d: %s", e.Action, e.Age, e.Reason)
}
