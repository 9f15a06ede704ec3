package person

// Flag is a bitmask of sticky conditions on a person. Most latch once and
// stay set for the rest of the run.
type Flag uint16

const (
	// FlagUrban marks an urban birth.
	FlagUrban Flag = 1 << iota
	// FlagOnlyChild marks a person with no siblings under a strict policy period.
	FlagOnlyChild
	// FlagElite marks the current structural class from the last class roll.
	FlagElite
	// FlagMidlifeApplied latches after the one-time midlife only-child penalty.
	FlagMidlifeApplied
	// FlagPropertyOwner latches after the property purchase conversion.
	FlagPropertyOwner
	// FlagEverWorked latches on the first work year.
	FlagEverWorked
)

// Has reports whether all bits of other are set.
func (f Flag) Has(other Flag) bool {
	return f&other == other
}

// Set returns f with the bits of other set.
func (f Flag) Set(other Flag) Flag {
	return f | other
}

// Clear returns f with the bits of other cleared.
func (f Flag) Clear(other Flag) Flag {
	return f &^ other
}
