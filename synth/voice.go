package synth

import (
	"sync/atomic"
)

// Voice is one sounding source plus its gain envelope. The engine owns it
// from creation until the audio clock passes its stop time, then drops its
// buffers and removes it from the mix.
type Voice struct {
	engine *Engine
	src    source
	gain   *Param
	start  float64
	stop   float64

	onEnded func()
	ended   atomic.Bool
}

// Start returns the audio-clock time the voice begins sounding
func (v *Voice) Start() float64 {
	if v == nil {
		return 0
	}
	return v.start
}

// End returns the audio-clock time the voice's source stops. It can move
// earlier when the voice is silenced.
func (v *Voice) End() float64 {
	if v == nil {
		return 0
	}
	v.engine.mu.Lock()
	defer v.engine.mu.Unlock()
	return v.stop
}

// Ended reports whether the engine has released the voice
func (v *Voice) Ended() bool {
	return v == nil || v.ended.Load()
}

// OnEnded registers f to run once after the voice is released. It runs on
// the audio goroutine and must not block.
func (v *Voice) OnEnded(f func()) {
	if v == nil {
		return
	}
	v.engine.mu.Lock()
	defer v.engine.mu.Unlock()
	v.onEnded = f
}

// Silence fades the voice out over StopLead and stops its source at the end
// of the fade. Silencing a released voice does nothing.
func (v *Voice) Silence() {
	if v == nil || v.ended.Load() {
		return
	}
	v.engine.mu.Lock()
	defer v.engine.mu.Unlock()
	if v.ended.Load() {
		return
	}
	now := v.engine.now()
	v.gain.Hold(now)
	v.gain.LinearRampToValueAtTime(0, now+StopLead)
	if end := now + StopLead; end < v.stop {
		v.stop = end
	}
}

// render returns the voice's sample at t and whether it has finished
func (v *Voice) render(t float64) (float64, bool) {
	if t >= v.stop {
		return 0, true
	}
	if t < v.start {
		return 0, false
	}
	return v.src.next(t) * v.gain.ValueAt(t), false
}

// release drops the audio nodes. Called with the engine mutex held.
func (v *Voice) release() func() {
	v.src = nil
	v.gain = nil
	v.ended.Store(true)
	f := v.onEnded
	v.onEnded = nil
	return f
}
