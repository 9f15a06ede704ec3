package country

import "github.com/lchant/loom/config"

// WindowState is the per-person opportunity window status. Missed and
// captured are terminal: the transition table has no way out of either,
// so the permanence invariant is structural, not a convention.
type WindowState uint8

const (
	WindowNotApplicable WindowState = iota
	WindowOpen
	WindowMissed
	WindowCaptured
)

func (s WindowState) String() string {
	switch s {
	case WindowNotApplicable:
		return "not_applicable"
	case WindowOpen:
		return "open"
	case WindowMissed:
		return "missed"
	case WindowCaptured:
		return "captured"
	}
	return "unknown"
}

// windowTransitions is the only authority on legal state changes.
var windowTransitions = map[WindowState][]WindowState{
	WindowNotApplicable: {WindowOpen},
	WindowOpen:          {WindowMissed, WindowCaptured},
	WindowMissed:        {},
	WindowCaptured:      {},
}

// WindowTracker follows one person's window through the era sequence.
// Consecutive window-eligible eras form a single span: the window opens on
// first contact and misses only when the span ends while still open.
type WindowTracker struct {
	state  WindowState
	window config.WindowConfig
}

// NewWindowTracker builds a tracker in the not-applicable state.
func NewWindowTracker(wc config.WindowConfig) *WindowTracker {
	return &WindowTracker{state: WindowNotApplicable, window: wc}
}

// State returns the current window state. Safe on a nil tracker.
func (t *WindowTracker) State() WindowState {
	if t == nil {
		return WindowNotApplicable
	}
	return t.state
}

// Observe records one year's era eligibility. First eligible year opens the
// window; the first ineligible year after an open span misses it.
func (t *WindowTracker) Observe(eligible bool) {
	if t == nil {
		return
	}
	switch {
	case eligible && t.state == WindowNotApplicable:
		t.transition(WindowOpen)
	case !eligible && t.state == WindowOpen:
		t.transition(WindowMissed)
	}
}

// RecordQualifyingAction evaluates the capture condition after a mobility
// action (risk or move) taken this year. The first qualifying year captures
// immediately. Returns true when the capture happened on this call.
func (t *WindowTracker) RecordQualifyingAction(education, skillDepth float64) bool {
	if t == nil || t.state != WindowOpen {
		return false
	}
	if education < t.window.CaptureEducation && skillDepth < t.window.CaptureSkill {
		return false
	}
	return t.transition(WindowCaptured)
}

// MobilityFactor returns the permanent mobility multiplier bound to the
// window outcome: the miss penalty, the capture bonus, or neutral.
// Safe on a nil tracker.
func (t *WindowTracker) MobilityFactor() float64 {
	if t == nil {
		return 1
	}
	switch t.state {
	case WindowMissed:
		return t.window.MissPenalty
	case WindowCaptured:
		return t.window.CaptureBonus
	default:
		return 1
	}
}

func (t *WindowTracker) transition(to WindowState) bool {
	for _, allowed := range windowTransitions[t.state] {
		if allowed == to {
			t.state = to
			return true
		}
	}
	return false
}
