package midi

import (
	"math"
	"sync"
	"time"

	"go-chiptodo/bgm"
	"go-chiptodo/debug"
	"go-chiptodo/synth"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// General MIDI percussion keys, channel 10
var drumKeys = map[synth.Percussion]uint8{
	synth.Kick:  36,
	synth.Hat:   42,
	synth.Noise: 39,
}

const allNotesOff = 123

// Key returns the MIDI key for a hit
func Key(h bgm.Hit) (uint8, bool) {
	if h.Pitch != nil {
		n := h.Pitch.MIDINote()
		if n < 0 || n > 127 {
			return 0, false
		}
		return uint8(n), true
	}
	k, ok := drumKeys[h.Drum]
	return k, ok
}

// Velocity maps a voice volume onto 1-127
func Velocity(volume float64) uint8 {
	v := int(math.Round(volume * 800))
	if v < 1 {
		return 1
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}

// Clock is the audio clock dispatch times refer to
type Clock interface {
	CurrentTime() float64
}

type stopper interface {
	Stop() bool
}

// Mirror sends every sequencer dispatch to a MIDI output, delayed to line
// up with the audio clock. It is a bgm.Observer.
type Mirror struct {
	clock Clock
	after func(time.Duration, func()) stopper

	mu       sync.Mutex
	send     Sender
	pending  map[int]stopper
	nextID   int
	channels map[uint8]bool
}

// NewMirror creates a detached mirror; SetSender attaches an output
func NewMirror(clock Clock) *Mirror {
	return &Mirror{
		clock: clock,
		after: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
		pending:  make(map[int]stopper),
		channels: make(map[uint8]bool),
	}
}

// SetSender attaches an output, or detaches with nil. Notes still pending
// for the old output are silenced.
func (m *Mirror) SetSender(send Sender) {
	m.OnStop()
	m.mu.Lock()
	m.send = send
	m.mu.Unlock()
}

// Attached reports whether an output is set
func (m *Mirror) Attached() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.send != nil
}

// OnDispatch schedules note on and note off for d
func (m *Mirror) OnDispatch(d bgm.Dispatch) {
	key, ok := Key(d.Hit)
	if !ok {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.send == nil {
		return
	}
	m.channels[d.Channel] = true

	delay := d.Time - m.clock.CurrentTime()
	if delay < 0 {
		delay = 0
	}
	on := seconds(delay)
	off := seconds(delay + d.Duration)
	m.scheduleLocked(on, gomidi.NoteOn(d.Channel, key, Velocity(d.Volume)))
	m.scheduleLocked(off, gomidi.NoteOff(d.Channel, key))
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// scheduleLocked sends msg after d unless OnStop runs first. Caller holds mu.
func (m *Mirror) scheduleLocked(d time.Duration, msg gomidi.Message) {
	id := m.nextID
	m.nextID++
	m.pending[id] = m.after(d, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.pending[id]; !ok {
			return
		}
		delete(m.pending, id)
		m.sendLocked(msg)
	})
}

func (m *Mirror) sendLocked(msg gomidi.Message) {
	if m.send == nil {
		return
	}
	if err := m.send(msg); err != nil {
		debug.LogEvery(32, "midi", "send: %v", err)
	}
}

// OnStop cancels pending messages and sends all-notes-off on every channel
// used so far
func (m *Mirror) OnStop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.pending {
		t.Stop()
		delete(m.pending, id)
	}
	for ch := range m.channels {
		m.sendLocked(gomidi.ControlChange(ch, allNotesOff, 0))
	}
}

// Pending returns the number of scheduled, unsent messages
func (m *Mirror) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
