package sfx

import (
	"fmt"
	"sync"
	"time"

	"go-chiptodo/debug"
	"go-chiptodo/synth"

	"golang.org/x/time/rate"
)

// Player starts a tone now on the audio clock. *synth.Engine satisfies it.
type Player interface {
	PlayTone(freq, duration float64, wave synth.Waveform, volume, detune float64)
}

// Gate reports whether output is muted
type Gate interface {
	IsMuted() bool
}

// AfterFunc runs f after d on its own goroutine
type AfterFunc func(d time.Duration, f func())

func afterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

// Burst cap: key repeat can trigger effects far faster than they decay
const (
	Burst     = 8
	RefillHz  = 20
	sweepStep = 8
)

// Effect names a UI event with a sound
type Effect int

const (
	Add Effect = iota
	Complete
	Uncomplete
	Delete
	MemoToggle
	MemoSave
	FilterAll
	FilterActive
	FilterCompleted
)

var effectNames = [...]string{"add", "complete", "uncomplete", "delete", "memo-toggle", "memo-save", "filter-all", "filter-active", "filter-completed"}

func (e Effect) String() string {
	if e >= 0 && int(e) < len(effectNames) {
		return effectNames[e]
	}
	return fmt.Sprintf("effect(%d)", int(e))
}

// FilterVariant is the todo list filter a Filter effect announces
type FilterVariant string

const (
	All       FilterVariant = "all"
	Active    FilterVariant = "active"
	Completed FilterVariant = "completed"
)

type note struct {
	delay time.Duration
	freq  float64
	dur   float64
	wave  synth.Waveform
	vol   float64
}

// Dispatcher maps UI events to short tone sequences
type Dispatcher struct {
	player Player
	gate   Gate
	after  AfterFunc

	mu      sync.Mutex
	limiter *rate.Limiter
}

// New creates a dispatcher playing through player, silent while gate is muted
func New(player Player, gate Gate) *Dispatcher {
	return &Dispatcher{
		player:  player,
		gate:    gate,
		after:   afterFunc,
		limiter: rate.NewLimiter(RefillHz, Burst),
	}
}

// SetAfterFunc replaces the delay timer (tests)
func (d *Dispatcher) SetAfterFunc(f AfterFunc) {
	d.after = f
}

// SetLimit replaces the burst limiter
func (d *Dispatcher) SetLimit(r rate.Limit, burst int) {
	d.mu.Lock()
	d.limiter = rate.NewLimiter(r, burst)
	d.mu.Unlock()
}

func (d *Dispatcher) allow() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.limiter.Allow()
}

// play starts the first notes now and the rest on wall-clock delays
func (d *Dispatcher) play(e Effect, notes []note) {
	if d.gate.IsMuted() {
		return
	}
	if !d.allow() {
		debug.Log("sfx", "drop %s: burst limit", e)
		return
	}
	debug.Log("sfx", "%s: %d notes", e, len(notes))
	for _, n := range notes {
		n := n
		if n.delay <= 0 {
			d.player.PlayTone(n.freq, n.dur, n.wave, n.vol, 0)
			continue
		}
		d.after(n.delay, func() {
			d.player.PlayTone(n.freq, n.dur, n.wave, n.vol, 0)
		})
	}
}

var (
	c4 = synth.NoteToFreq(synth.C, 4)
	a4 = synth.NoteToFreq(synth.A, 4)
	c5 = synth.NoteToFreq(synth.C, 5)
	e5 = synth.NoteToFreq(synth.E, 5)
	g5 = synth.NoteToFreq(synth.G, 5)
	c6 = synth.NoteToFreq(synth.C, 6)
)

// Add is a rising C5-E5-G5 arpeggio
func (d *Dispatcher) Add() {
	d.play(Add, []note{
		{0, c5, 0.1, synth.Square, 0.15},
		{80 * time.Millisecond, e5, 0.1, synth.Square, 0.15},
		{160 * time.Millisecond, g5, 0.1, synth.Square, 0.15},
	})
}

// Complete is a two-note G5-C6 chime
func (d *Dispatcher) Complete() {
	d.play(Complete, []note{
		{0, g5, 0.12, synth.Square, 0.18},
		{120 * time.Millisecond, c6, 0.18, synth.Square, 0.2},
	})
}

// Uncomplete falls C6-G5
func (d *Dispatcher) Uncomplete() {
	d.play(Uncomplete, []note{
		{0, c6, 0.1, synth.Triangle, 0.12},
		{100 * time.Millisecond, g5, 0.12, synth.Triangle, 0.1},
	})
}

// Delete sweeps down from C5 to C4 in nine notes over 150ms, fading out
func (d *Dispatcher) Delete() {
	const total = 150 * time.Millisecond
	step := total / sweepStep
	notes := make([]note, 0, sweepStep+1)
	for i := 0; i <= sweepStep; i++ {
		t := float64(i) / sweepStep
		notes = append(notes, note{
			delay: time.Duration(i) * step,
			freq:  c5 + (c4-c5)*t,
			dur:   step.Seconds() + 0.02,
			wave:  synth.Square,
			vol:   0.15 * (1 - t*0.5),
		})
	}
	d.play(Delete, notes)
}

// MemoToggle is a soft A4 click
func (d *Dispatcher) MemoToggle() {
	d.play(MemoToggle, []note{{0, a4, 0.05, synth.Triangle, 0.12}})
}

// MemoSave confirms with E5-G5
func (d *Dispatcher) MemoSave() {
	d.play(MemoSave, []note{
		{0, e5, 0.1, synth.Triangle, 0.15},
		{100 * time.Millisecond, g5, 0.12, synth.Triangle, 0.18},
	})
}

// Filter ticks at a pitch per variant: all C4, active E5, completed G5
func (d *Dispatcher) Filter(v FilterVariant) {
	switch v {
	case Active:
		d.play(FilterActive, []note{{0, e5, 0.04, synth.Square, 0.1}})
	case Completed:
		d.play(FilterCompleted, []note{{0, g5, 0.04, synth.Square, 0.1}})
	default:
		d.play(FilterAll, []note{{0, c4, 0.04, synth.Square, 0.1}})
	}
}

// Trigger plays the effect for e. Effects fire immediately, except that a
// flood beyond the burst limit (key repeat) is dropped rather than queued.
func (d *Dispatcher) Trigger(e Effect) {
	switch e {
	case Add:
		d.Add()
	case Complete:
		d.Complete()
	case Uncomplete:
		d.Uncomplete()
	case Delete:
		d.Delete()
	case MemoToggle:
		d.MemoToggle()
	case MemoSave:
		d.MemoSave()
	case FilterAll:
		d.Filter(All)
	case FilterActive:
		d.Filter(Active)
	case FilterCompleted:
		d.Filter(Completed)
	default:
		debug.Log("sfx", "unknown effect %d", int(e))
	}
}
