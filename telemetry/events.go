// Package telemetry turns raw yearly snapshots into trajectory files,
// detected life events, per-run aggregates, and batch summaries.
package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/lchant/loom/config"
)

// EventType identifies the type of detected life event.
type EventType string

const (
	EventIncomeBreakthrough EventType = "income_breakthrough"
	EventWealthShock        EventType = "wealth_shock"
	EventBurnout            EventType = "burnout"
	EventRecovery           EventType = "recovery"
	EventWindowCaptured     EventType = "window_captured"
	EventWindowMissed       EventType = "window_missed"
	EventEliteAscension     EventType = "elite_ascension"
	EventEliteFall          EventType = "elite_fall"
	EventFirstProperty      EventType = "first_property"
	EventGoldenYears        EventType = "golden_years"
)

// Event represents an automatically detected turning point in a life.
type Event struct {
	Type        EventType `csv:"type" json:"type"`
	Year        int       `csv:"year" json:"year"`
	Age         int       `csv:"age" json:"age"`
	Description string    `csv:"description" json:"description"`
}

// LogEvent logs the event using slog.
func (e Event) LogEvent() {
	slog.Info("event",
		"type", string(e.Type),
		"year", e.Year,
		"age", e.Age,
		"description", e.Description,
	)
}

// Structural detection constants. The tunable thresholds live in
// config.TelemetryConfig.
const (
	breakthroughFactor   = 2.0 // income vs rolling average
	breakthroughMin      = 1000.0
	recoveryEnergy       = 0.6
	recoveryStressCeil   = 0.5
	goldenStressCeiling  = 0.5
	goldenStretchYears   = 5
	minBreakthroughYears = 3
)

// EventDetector detects turning points while a trajectory streams past.
type EventDetector struct {
	cfg config.TelemetryConfig

	// Rolling history (circular buffer)
	history     []Snapshot
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	prev        Snapshot
	seen        bool
	wealthPeak  float64
	burnoutOpen bool // latched until a recovery clears it
	goldenRun   int  // consecutive qualifying years
}

// NewEventDetector creates a detector with history sized from config.
func NewEventDetector(cfg config.TelemetryConfig) *EventDetector {
	size := cfg.HistorySize
	if size < goldenStretchYears {
		size = goldenStretchYears
	}
	return &EventDetector{
		cfg:         cfg,
		history:     make([]Snapshot, size),
		historySize: size,
	}
}

// Check analyzes the latest snapshot and returns any triggered events.
func (d *EventDetector) Check(s Snapshot) []Event {
	var events []Event

	if d.seen {
		if e := d.checkWindowTransition(s); e != nil {
			events = append(events, *e)
		}
		if e := d.checkEliteTransition(s); e != nil {
			events = append(events, *e)
		}
		if e := d.checkFirstProperty(s); e != nil {
			events = append(events, *e)
		}
		if e := d.checkIncomeBreakthrough(s); e != nil {
			events = append(events, *e)
		}
		if e := d.checkWealthShock(s); e != nil {
			events = append(events, *e)
		}
		if e := d.checkBurnout(s); e != nil {
			events = append(events, *e)
		}
		if e := d.checkRecovery(s); e != nil {
			events = append(events, *e)
		}
		if e := d.checkGoldenYears(s); e != nil {
			events = append(events, *e)
		}
	}

	d.addToHistory(s)
	d.prev = s
	d.seen = true
	if s.Wealth > d.wealthPeak {
		d.wealthPeak = s.Wealth
	}

	return events
}

func (d *EventDetector) addToHistory(s Snapshot) {
	d.history[d.historyIdx] = s
	d.historyIdx = (d.historyIdx + 1) % d.historySize
	if d.historyIdx == 0 {
		d.historyFull = true
	}
}

func (d *EventDetector) getHistory() []Snapshot {
	if d.historyFull {
		return d.history
	}
	return d.history[:d.historyIdx]
}

func (d *EventDetector) checkWindowTransition(s Snapshot) *Event {
	if s.WindowStatus == d.prev.WindowStatus {
		return nil
	}
	switch s.WindowStatus {
	case "captured":
		return &Event{
			Type:        EventWindowCaptured,
			Year:        s.Year,
			Age:         s.Age,
			Description: fmt.Sprintf("Captured the mobility window at age %d via %s", s.Age, s.Action),
		}
	case "missed":
		return &Event{
			Type:        EventWindowMissed,
			Year:        s.Year,
			Age:         s.Age,
			Description: fmt.Sprintf("Mobility window closed uncaptured at age %d", s.Age),
		}
	}
	return nil
}

func (d *EventDetector) checkEliteTransition(s Snapshot) *Event {
	if s.Elite == d.prev.Elite {
		return nil
	}
	if s.Elite {
		return &Event{
			Type:        EventEliteAscension,
			Year:        s.Year,
			Age:         s.Age,
			Description: fmt.Sprintf("Crossed into the elite tier with score %.2f", s.Score),
		}
	}
	return &Event{
		Type:        EventEliteFall,
		Year:        s.Year,
		Age:         s.Age,
		Description: fmt.Sprintf("Fell out of the elite tier with score %.2f", s.Score),
	}
}

func (d *EventDetector) checkFirstProperty(s Snapshot) *Event {
	if d.prev.PropertyOwner || !s.PropertyOwner {
		return nil
	}
	return &Event{
		Type:        EventFirstProperty,
		Year:        s.Year,
		Age:         s.Age,
		Description: fmt.Sprintf("Bought property worth %.0f in %s", s.PropertyValue, s.City),
	}
}

func (d *EventDetector) checkIncomeBreakthrough(s Snapshot) *Event {
	history := d.getHistory()
	if len(history) < minBreakthroughYears {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.Income
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if s.Income > avg*breakthroughFactor && s.Income > breakthroughMin {
		return &Event{
			Type:        EventIncomeBreakthrough,
			Year:        s.Year,
			Age:         s.Age,
			Description: fmt.Sprintf("Income %.0f is %.1fx the recent average (%.0f)", s.Income, s.Income/avg, avg),
		}
	}
	return nil
}

func (d *EventDetector) checkWealthShock(s Snapshot) *Event {
	if d.wealthPeak < d.cfg.WealthShockFloor {
		return nil
	}

	drop := 1 - s.Wealth/d.wealthPeak
	if drop > d.cfg.WealthShockDrop {
		oldPeak := d.wealthPeak
		// Reset the peak so one crash does not retrigger every year.
		d.wealthPeak = s.Wealth

		return &Event{
			Type:        EventWealthShock,
			Year:        s.Year,
			Age:         s.Age,
			Description: fmt.Sprintf("Wealth crashed %.0f%% from peak %.0f to %.0f", drop*100, oldPeak, s.Wealth),
		}
	}
	return nil
}

func (d *EventDetector) checkBurnout(s Snapshot) *Event {
	if d.burnoutOpen {
		return nil
	}
	if s.Stress >= d.cfg.BurnoutStress && s.Energy <= d.cfg.BurnoutEnergy {
		d.burnoutOpen = true
		return &Event{
			Type:        EventBurnout,
			Year:        s.Year,
			Age:         s.Age,
			Description: fmt.Sprintf("Burnout at age %d: stress %.2f, energy %.2f", s.Age, s.Stress, s.Energy),
		}
	}
	return nil
}

func (d *EventDetector) checkRecovery(s Snapshot) *Event {
	if !d.burnoutOpen {
		return nil
	}
	if s.Energy >= recoveryEnergy && s.Stress <= recoveryStressCeil {
		d.burnoutOpen = false
		return &Event{
			Type:        EventRecovery,
			Year:        s.Year,
			Age:         s.Age,
			Description: fmt.Sprintf("Recovered from burnout at age %d: stress %.2f, energy %.2f", s.Age, s.Stress, s.Energy),
		}
	}
	return nil
}

func (d *EventDetector) checkGoldenYears(s Snapshot) *Event {
	if s.Wealth >= d.prev.Wealth && s.Stress < goldenStressCeiling {
		d.goldenRun++
	} else {
		d.goldenRun = 0
		return nil
	}

	if d.goldenRun == goldenStretchYears { // trigger exactly once per stretch
		return &Event{
			Type:        EventGoldenYears,
			Year:        s.Year,
			Age:         s.Age,
			Description: fmt.Sprintf("%d straight years of rising wealth and low stress", goldenStretchYears),
		}
	}
	return nil
}
