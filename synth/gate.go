package synth

import (
	"go-chiptodo/debug"
)

// GateRamp is how long a mute or volume change takes to reach its target
const GateRamp = 0.01

// Gate is the master mute/volume switch in front of the output. Changes
// ramp over GateRamp so they never click, and leave voice envelopes alone.
type Gate struct {
	e      *Engine
	level  *Param
	muted  bool
	volume float64
}

func newGate(e *Engine) *Gate {
	return &Gate{
		e:      e,
		level:  NewParam(1),
		volume: 1,
	}
}

// SetMuted switches the master level between 0 and the configured volume
func (g *Gate) SetMuted(muted bool) {
	g.e.mu.Lock()
	defer g.e.mu.Unlock()
	if g.muted == muted {
		return
	}
	g.muted = muted
	debug.Log("gate", "muted=%v", muted)
	g.apply(g.e.now())
}

// IsMuted reports the mute state
func (g *Gate) IsMuted() bool {
	g.e.mu.Lock()
	defer g.e.mu.Unlock()
	return g.muted
}

// SetVolume sets the unmuted master level, clamped to [0,1]
func (g *Gate) SetVolume(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	g.e.mu.Lock()
	defer g.e.mu.Unlock()
	g.volume = v
	g.apply(g.e.now())
}

// Volume returns the unmuted master level
func (g *Gate) Volume() float64 {
	g.e.mu.Lock()
	defer g.e.mu.Unlock()
	return g.volume
}

// Level returns the master level at the current audio time
func (g *Gate) Level() float64 {
	g.e.mu.Lock()
	defer g.e.mu.Unlock()
	return g.level.ValueAt(g.e.now())
}

func (g *Gate) target() float64 {
	if g.muted {
		return 0
	}
	return g.volume
}

// apply ramps the master level to the current target. Called with e.mu held.
func (g *Gate) apply(now float64) {
	if !g.e.ready.Load() {
		// Nothing is rendering yet; start at the target.
		g.level = NewParam(g.target())
		return
	}
	g.level.Hold(now)
	g.level.LinearRampToValueAtTime(g.target(), now+GateRamp)
}
