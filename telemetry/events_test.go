package telemetry

import (
	"testing"

	"github.com/lchant/loom/config"
)

func init() {
	config.MustInit("")
}

func detectorForTest() *EventDetector {
	return NewEventDetector(config.Cfg().Telemetry)
}

func hasEvent(events []Event, et EventType) bool {
	for _, e := range events {
		if e.Type == et {
			return true
		}
	}
	return false
}

func TestEventDetector_WealthShock(t *testing.T) {
	d := detectorForTest()

	// Build up wealth above the shock floor.
	for i := 0; i < 5; i++ {
		d.Check(Snapshot{Age: 30 + i, Wealth: 50000 + float64(i)*10000})
	}

	// Crash well past the configured drop.
	events := d.Check(Snapshot{Age: 35, Wealth: 20000})
	if !hasEvent(events, EventWealthShock) {
		t.Error("expected wealth_shock event")
	}

	// The peak resets on trigger, so a flat year does not retrigger.
	events = d.Check(Snapshot{Age: 36, Wealth: 19000})
	if hasEvent(events, EventWealthShock) {
		t.Error("wealth shock retriggered without a new peak")
	}
}

func TestEventDetector_ShockNeedsRealWealth(t *testing.T) {
	d := detectorForTest()

	// Peaks below the floor never shock, whatever the relative drop.
	d.Check(Snapshot{Age: 20, Wealth: 5000})
	events := d.Check(Snapshot{Age: 21, Wealth: 100})
	if hasEvent(events, EventWealthShock) {
		t.Error("shock fired below the wealth floor")
	}
}

func TestEventDetector_BurnoutLatchAndRecovery(t *testing.T) {
	d := detectorForTest()
	d.Check(Snapshot{Age: 30, Stress: 0.5, Energy: 0.8})

	events := d.Check(Snapshot{Age: 31, Stress: 0.9, Energy: 0.1})
	if !hasEvent(events, EventBurnout) {
		t.Fatal("expected burnout event")
	}

	// Still down: the latch holds, no duplicate burnout.
	events = d.Check(Snapshot{Age: 32, Stress: 0.95, Energy: 0.05})
	if hasEvent(events, EventBurnout) {
		t.Error("burnout fired twice without a recovery")
	}

	events = d.Check(Snapshot{Age: 33, Stress: 0.3, Energy: 0.7})
	if !hasEvent(events, EventRecovery) {
		t.Fatal("expected recovery event")
	}

	// Latch released: a second breakdown can fire again.
	events = d.Check(Snapshot{Age: 40, Stress: 0.9, Energy: 0.1})
	if !hasEvent(events, EventBurnout) {
		t.Error("expected a second burnout after recovery")
	}
}

func TestEventDetector_WindowTransitions(t *testing.T) {
	d := detectorForTest()

	d.Check(Snapshot{Age: 15, WindowStatus: "not_applicable"})
	d.Check(Snapshot{Age: 16, WindowStatus: "open"})

	events := d.Check(Snapshot{Age: 17, WindowStatus: "captured", Action: "risk"})
	if !hasEvent(events, EventWindowCaptured) {
		t.Fatal("expected window_captured event")
	}

	// Steady state afterwards stays quiet.
	events = d.Check(Snapshot{Age: 18, WindowStatus: "captured"})
	if hasEvent(events, EventWindowCaptured) {
		t.Error("capture event repeated on an unchanged status")
	}
}

func TestEventDetector_EliteTransitions(t *testing.T) {
	d := detectorForTest()

	d.Check(Snapshot{Age: 30, Elite: false, Score: 0.7})
	events := d.Check(Snapshot{Age: 31, Elite: true, Score: 0.85})
	if !hasEvent(events, EventEliteAscension) {
		t.Fatal("expected elite_ascension event")
	}

	events = d.Check(Snapshot{Age: 32, Elite: false, Score: 0.75})
	if !hasEvent(events, EventEliteFall) {
		t.Fatal("expected elite_fall event")
	}
}

func TestEventDetector_FirstPropertyOnce(t *testing.T) {
	d := detectorForTest()

	d.Check(Snapshot{Age: 27, PropertyOwner: false})
	events := d.Check(Snapshot{Age: 28, PropertyOwner: true, PropertyValue: 120000, City: "capital"})
	if !hasEvent(events, EventFirstProperty) {
		t.Fatal("expected first_property event")
	}

	events = d.Check(Snapshot{Age: 29, PropertyOwner: true, PropertyValue: 125000})
	if hasEvent(events, EventFirstProperty) {
		t.Error("property event repeated for an existing owner")
	}
}

func TestEventDetector_IncomeBreakthrough(t *testing.T) {
	d := detectorForTest()

	// Flat income history.
	for i := 0; i < 5; i++ {
		d.Check(Snapshot{Age: 20 + i, Income: 2000})
	}

	events := d.Check(Snapshot{Age: 25, Income: 8000})
	if !hasEvent(events, EventIncomeBreakthrough) {
		t.Error("expected income_breakthrough event")
	}
}

func TestEventDetector_GoldenYearsTriggersOnce(t *testing.T) {
	d := detectorForTest()

	d.Check(Snapshot{Age: 30, Wealth: 1000, Stress: 0.2})
	var fired int
	for i := 1; i <= 8; i++ {
		events := d.Check(Snapshot{Age: 30 + i, Wealth: 1000 + float64(i)*100, Stress: 0.2})
		if hasEvent(events, EventGoldenYears) {
			fired++
		}
	}
	if fired != 1 {
		t.Fatalf("golden_years fired %d times, want exactly once", fired)
	}

	// A stressful year resets the stretch; another five clean years fire again.
	d.Check(Snapshot{Age: 39, Wealth: 2000, Stress: 0.9})
	fired = 0
	for i := 1; i <= 6; i++ {
		events := d.Check(Snapshot{Age: 39 + i, Wealth: 2000 + float64(i)*100, Stress: 0.2})
		if hasEvent(events, EventGoldenYears) {
			fired++
		}
	}
	if fired != 1 {
		t.Fatalf("golden_years fired %d times after reset, want exactly once", fired)
	}
}
