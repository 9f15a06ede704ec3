package person

import "fmt"

// Action is one of the six yearly choices. The numeric order is the
// canonical iteration order everywhere a draw or a listing happens, so
// runs stay reproducible.
type Action uint8

const (
	ActionStudy Action = iota
	ActionWork
	ActionRest
	ActionMove
	ActionRisk
	ActionRelation

	actionCount
)

// Actions returns all actions in canonical order.
func Actions() []Action {
	out := make([]Action, actionCount)
	for i := range out {
		out[i] = Action(i)
	}
	return out
}

func (a Action) String() string {
	switch a {
	case ActionStudy:
		return "study"
	case ActionWork:
		return "work"
	case ActionRest:
		return "rest"
	case ActionMove:
		return "move"
	case ActionRisk:
		return "risk"
	case ActionRelation:
		return "relation"
	}
	return "unknown"
}

// ParseAction maps a lower-case action name to its Action.
func ParseAction(name string) (Action, error) {
	for _, a := range Actions() {
		if a.String() == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", name)
}
