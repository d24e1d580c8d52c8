package audio

import (
	"context"
	"fmt"
	"sync"

	"go-chiptodo/bgm"
	"go-chiptodo/debug"
	"go-chiptodo/sfx"
	"go-chiptodo/synth"
)

// Prefs are the persisted audio preferences
type Prefs struct {
	Muted      bool
	BGMEnabled bool
	Volume     float64
	Tempo      float64
}

// DefaultPrefs: sound on, music on
func DefaultPrefs() Prefs {
	return Prefs{BGMEnabled: true, Volume: 1, Tempo: bgm.DefaultTempo}
}

// Manager owns the engine, sequencer and effect dispatcher and keeps them
// in step with the user's mute and music preferences.
type Manager struct {
	engine *synth.Engine
	seq    *bgm.Sequencer
	fx     *sfx.Dispatcher

	openDevice func(context.Context) error

	mu          sync.Mutex
	prefs       Prefs
	initialized bool
	onChange    func(Prefs)
}

// New wires a manager around engine playing song. Output stays muted
// until Init succeeds.
func New(engine *synth.Engine, song *bgm.Song, prefs Prefs) *Manager {
	gate := engine.Gate()
	m := &Manager{
		engine:     engine,
		openDevice: engine.Init,
		seq:        bgm.NewSequencer(bgm.EngineOutput(engine), gate, song),
		fx:         sfx.New(engine, gate),
		prefs:      prefs,
	}
	gate.SetMuted(true)
	gate.SetVolume(prefs.Volume)
	if prefs.Tempo > 0 {
		m.seq.SetTempo(prefs.Tempo)
	}
	m.prefs.Tempo = m.seq.Tempo()
	return m
}

// OnChange registers f to receive preferences after every change made
// once the manager is initialized
func (m *Manager) OnChange(f func(Prefs)) {
	m.mu.Lock()
	m.onChange = f
	m.mu.Unlock()
}

// Init opens the audio output and applies the saved preferences. Safe to
// call repeatedly; on failure the manager stays a silent no-op.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	if m.initialized {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	if err := m.openDevice(ctx); err != nil {
		debug.Log("audio", "Init failed: %v", err)
		return fmt.Errorf("audio init: %w", err)
	}

	m.mu.Lock()
	m.initialized = true
	m.syncLocked()
	m.mu.Unlock()
	debug.Log("audio", "Init: muted=%v bgm=%v", m.IsMuted(), m.BGMEnabled())
	return nil
}

// Initialized reports whether Init has succeeded
func (m *Manager) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

// syncLocked applies prefs to the gate and the loop. Caller holds mu.
func (m *Manager) syncLocked() {
	if !m.initialized {
		return
	}
	m.engine.Gate().SetMuted(m.prefs.Muted)
	if m.prefs.Muted {
		m.seq.Stop()
	} else if m.prefs.BGMEnabled {
		m.seq.Start()
	}
}

// changedLocked returns the change notification to run after unlocking.
// Caller holds mu.
func (m *Manager) changedLocked() func() {
	if !m.initialized || m.onChange == nil {
		return func() {}
	}
	f, p := m.onChange, m.prefs
	return func() { f(p) }
}

// SetMuted mutes or unmutes all output. Muting stops the loop; unmuting
// restarts it when music is enabled.
func (m *Manager) SetMuted(muted bool) {
	m.mu.Lock()
	if m.prefs.Muted == muted {
		m.mu.Unlock()
		return
	}
	m.prefs.Muted = muted
	m.syncLocked()
	notify := m.changedLocked()
	m.mu.Unlock()
	debug.Log("gate", "SetMuted(%v)", muted)
	notify()
}

// IsMuted reports the effective mute state. Output is muted until Init.
func (m *Manager) IsMuted() bool {
	return m.engine.Gate().IsMuted()
}

// ToggleMute flips mute. Before Init it initializes instead, as the
// first user gesture, and returns the Init error.
func (m *Manager) ToggleMute() error {
	if !m.Initialized() {
		return m.Init(context.Background())
	}
	m.SetMuted(!m.prefsSnapshot().Muted)
	return nil
}

// SetBGMEnabled turns the background loop on or off
func (m *Manager) SetBGMEnabled(enabled bool) {
	m.mu.Lock()
	if m.prefs.BGMEnabled == enabled {
		m.mu.Unlock()
		return
	}
	m.prefs.BGMEnabled = enabled
	if enabled && !m.prefs.Muted && m.initialized {
		m.seq.Start()
	} else if !enabled {
		m.seq.Stop()
	}
	notify := m.changedLocked()
	m.mu.Unlock()
	debug.Log("audio", "SetBGMEnabled(%v)", enabled)
	notify()
}

// BGMEnabled reports the music preference
func (m *Manager) BGMEnabled() bool {
	return m.prefsSnapshot().BGMEnabled
}

// ToggleBGM flips the music preference, initializing first if needed
func (m *Manager) ToggleBGM() error {
	if !m.Initialized() {
		return m.Init(context.Background())
	}
	m.SetBGMEnabled(!m.BGMEnabled())
	return nil
}

// StartLoop starts the background loop if output is unmuted
func (m *Manager) StartLoop() { m.seq.Start() }

// StopLoop stops the background loop and silences its voices
func (m *Manager) StopLoop() { m.seq.Stop() }

// IsLoopActive reports whether the loop is playing
func (m *Manager) IsLoopActive() bool { return m.seq.IsRunning() }

// SetTempo changes loop tempo; out-of-range values are ignored
func (m *Manager) SetTempo(bpm float64) {
	m.seq.SetTempo(bpm)
	m.mu.Lock()
	if m.prefs.Tempo == m.seq.Tempo() {
		m.mu.Unlock()
		return
	}
	m.prefs.Tempo = m.seq.Tempo()
	notify := m.changedLocked()
	m.mu.Unlock()
	notify()
}

// Tempo returns the loop tempo in BPM
func (m *Manager) Tempo() float64 { return m.seq.Tempo() }

// SetVolume sets master volume, clamped to [0, 1]
func (m *Manager) SetVolume(v float64) {
	gate := m.engine.Gate()
	gate.SetVolume(v)
	m.mu.Lock()
	m.prefs.Volume = gate.Volume()
	notify := m.changedLocked()
	m.mu.Unlock()
	notify()
}

// Trigger plays a UI sound effect
func (m *Manager) Trigger(e sfx.Effect) { m.fx.Trigger(e) }

// Prefs returns the current preferences
func (m *Manager) Prefs() Prefs { return m.prefsSnapshot() }

func (m *Manager) prefsSnapshot() Prefs {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefs
}

// State returns the loop playback state
func (m *Manager) State() bgm.State { return m.seq.State() }

// Sequencer exposes the loop for observers and update notifications
func (m *Manager) Sequencer() *bgm.Sequencer { return m.seq }

// Close stops the loop and releases the output
func (m *Manager) Close() error {
	m.seq.Stop()
	return m.engine.Close()
}
