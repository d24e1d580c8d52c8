package synth

import (
	"math"
	"sort"
)

type automationKind int

const (
	setValue automationKind = iota
	linearRamp
	expRamp
)

type automation struct {
	kind  automationKind
	time  float64
	value float64
}

// Param is a value automated against the audio clock. Events are kept in
// time order; a ramp runs from the previous event to its own time.
//
// Param is not safe for concurrent use; the engine guards every Param it
// owns with its own mutex.
type Param struct {
	value  float64 // value before the first event
	events []automation
}

// NewParam returns a param holding v until automated
func NewParam(v float64) *Param {
	return &Param{value: v}
}

func (p *Param) insert(a automation) {
	// Insert after any event at the same time so later calls win
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time > a.time })
	p.events = append(p.events, automation{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = a
}

// SetValueAtTime jumps to v at t
func (p *Param) SetValueAtTime(v, t float64) {
	p.insert(automation{kind: setValue, time: t, value: v})
}

// LinearRampToValueAtTime ramps linearly from the previous event to v at t
func (p *Param) LinearRampToValueAtTime(v, t float64) {
	p.insert(automation{kind: linearRamp, time: t, value: v})
}

// ExponentialRampToValueAtTime ramps exponentially to v at t. Both ends must
// be positive; otherwise the previous value holds until t.
func (p *Param) ExponentialRampToValueAtTime(v, t float64) {
	p.insert(automation{kind: expRamp, time: t, value: v})
}

// CancelScheduledValues drops every event at or after t
func (p *Param) CancelScheduledValues(t float64) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time >= t })
	p.events = p.events[:i]
}

// Hold collapses the timeline to the value reached at t and pins it there.
// Anything scheduled after t is discarded.
func (p *Param) Hold(t float64) float64 {
	v := p.ValueAt(t)
	p.value = v
	p.events = p.events[:0]
	p.SetValueAtTime(v, t)
	return v
}

// ValueAt evaluates the automation timeline at t
func (p *Param) ValueAt(t float64) float64 {
	prevV, prevT := p.value, 0.0
	for _, e := range p.events {
		if e.time <= t {
			prevV, prevT = e.value, e.time
			continue
		}
		span := e.time - prevT
		if span <= 0 {
			return prevV
		}
		frac := (t - prevT) / span
		switch e.kind {
		case linearRamp:
			return prevV + (e.value-prevV)*frac
		case expRamp:
			if prevV > 0 && e.value > 0 {
				return prevV * math.Pow(e.value/prevV, frac)
			}
		}
		return prevV
	}
	return prevV
}

// Len reports the number of pending automation events
func (p *Param) Len() int {
	return len(p.events)
}
