package person

// Delta is one attribute mutation: value = value*Scale + Add, applied in
// declaration order. Gain marks deltas that structural multipliers may
// amplify; costs and penalties keep Gain false and pass through untouched.
type Delta struct {
	Attr  Attr
	Add   float64
	Scale float64
	Gain  bool
}

// Add builds an additive delta that amplifiers ignore.
func Add(a Attr, v float64) Delta {
	return Delta{Attr: a, Add: v, Scale: 1}
}

// Gain builds an additive delta that amplifiers may scale.
func Gain(a Attr, v float64) Delta {
	return Delta{Attr: a, Add: v, Scale: 1, Gain: true}
}

// Scale builds a multiplicative delta that amplifiers ignore.
func Scale(a Attr, m float64) Delta {
	return Delta{Attr: a, Scale: m}
}

// ScaleGain builds a multiplicative delta that amplifiers may scale.
func ScaleGain(a Attr, m float64) Delta {
	return Delta{Attr: a, Scale: m, Gain: true}
}

// Effect is an ordered list of attribute deltas. The transition pipeline
// builds one per year, lets each structural layer amplify or adjust it,
// and applies it to the state exactly once.
type Effect struct {
	Deltas []Delta
}

// NewEffect builds an effect from the given deltas.
func NewEffect(deltas ...Delta) *Effect {
	return &Effect{Deltas: deltas}
}

// Append adds deltas to the end of the effect.
func (e *Effect) Append(deltas ...Delta) {
	e.Deltas = append(e.Deltas, deltas...)
}

// AmplifyGains scales every gain delta in the effect, whatever its class.
// Era and city action modifiers use this; costs still pass through.
func (e *Effect) AmplifyGains(m float64) {
	for i := range e.Deltas {
		d := &e.Deltas[i]
		if !d.Gain {
			continue
		}
		d.Add *= m
		d.Scale = 1 + (d.Scale-1)*m
	}
}

// AmplifyClass scales every gain delta whose attribute belongs to class.
// Additive gains multiply by m; multiplicative gains move their distance
// from identity by m, so a 1.2 scale amplified by 2 becomes 1.4.
func (e *Effect) AmplifyClass(class AttrClass, m float64) {
	for i := range e.Deltas {
		d := &e.Deltas[i]
		if !d.Gain || d.Attr.Class() != class {
			continue
		}
		d.Add *= m
		d.Scale = 1 + (d.Scale-1)*m
	}
}

// AmplifyAttr scales gain deltas of a single attribute, for layers that
// target one field instead of a whole class.
func (e *Effect) AmplifyAttr(a Attr, m float64) {
	for i := range e.Deltas {
		d := &e.Deltas[i]
		if !d.Gain || d.Attr != a {
			continue
		}
		d.Add *= m
		d.Scale = 1 + (d.Scale-1)*m
	}
}

// ApplyTo mutates the state with every delta in order, then clamps.
func (e *Effect) ApplyTo(s *State) {
	for _, d := range e.Deltas {
		v := s.Value(d.Attr)
		s.setValue(d.Attr, v*d.Scale+d.Add)
	}
	s.Clamp()
}
