package bgm

import (
	"sync"
	"time"

	"go-chiptodo/debug"
	"go-chiptodo/synth"
)

// Scheduling window, in seconds of audio time
const (
	Lookahead = 0.15
	StartLead = 0.05

	// Ticker period for the scheduling loop
	Interval = 50 * time.Millisecond

	MaxTempo = 300
)

// Voice is a scheduled sound the sequencer can cut short
type Voice interface {
	End() float64
	Silence()
}

// Output is what the sequencer schedules onto: an audio clock plus
// voice creation at explicit clock times. A nil Voice means nothing was
// scheduled.
type Output interface {
	Ready() bool
	CurrentTime() float64
	Tone(at float64, t synth.Tone) Voice
	Percussion(at float64, kind synth.Percussion, dur, vol float64) Voice
}

// Gate reports whether output is muted
type Gate interface {
	IsMuted() bool
}

// Dispatch describes one hit sent to the output
type Dispatch struct {
	Track    string
	Channel  uint8
	Step     int
	Time     float64 // audio clock
	Duration float64 // seconds
	Volume   float64
	Hit      Hit
}

// Observer sees every dispatched hit. Called with the sequencer lock held,
// so it must not block or call back into the sequencer.
type Observer interface {
	OnDispatch(d Dispatch)
	OnStop()
}

// TickerFunc creates the scheduling ticker; the returned func stops it
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

type clock struct {
	step         int
	nextStepTime float64
	tempo        float64
}

func (c clock) secondsPerStep() float64 {
	return 60 / c.tempo / 4
}

type activeVoice struct {
	voice Voice
	end   float64
}

// Sequencer plays a Song on an Output with lookahead scheduling
type Sequencer struct {
	out  Output
	gate Gate
	song *Song

	newTicker TickerFunc

	runMu     sync.Mutex // serializes Start and Stop
	mu        sync.Mutex
	running   bool
	clock     clock
	voices    []activeVoice
	observers []Observer

	stopChan chan struct{}
	done     chan struct{}

	// Notify TUI of step changes
	UpdateChan chan struct{}
}

// NewSequencer creates a stopped sequencer at the song's tempo
func NewSequencer(out Output, gate Gate, song *Song) *Sequencer {
	tempo := song.Tempo
	if tempo <= 0 || tempo > MaxTempo {
		tempo = DefaultTempo
	}
	return &Sequencer{
		out:        out,
		gate:       gate,
		song:       song,
		newTicker:  realTicker,
		clock:      clock{tempo: tempo},
		UpdateChan: make(chan struct{}, 1),
	}
}

// SetTicker replaces the scheduling ticker. Must be called before Start.
func (s *Sequencer) SetTicker(f TickerFunc) {
	s.mu.Lock()
	s.newTicker = f
	s.mu.Unlock()
}

// AddObserver registers o for dispatch notifications
func (s *Sequencer) AddObserver(o Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

// Start begins playback from step 0. Does nothing if already running,
// if the output is not ready, or if the gate is muted.
func (s *Sequencer) Start() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.Lock()
	if s.running || !s.out.Ready() || s.gate.IsMuted() {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.clock.step = 0
	s.clock.nextStepTime = s.out.CurrentTime() + StartLead
	debug.Log("bgm", "Start: song=%s tempo=%.1f at=%.3f", s.song.Name, s.clock.tempo, s.clock.nextStepTime)
	s.schedule()

	stop := make(chan struct{})
	done := make(chan struct{})
	s.stopChan, s.done = stop, done
	ticks, cancel := s.newTicker(Interval)
	s.mu.Unlock()

	go s.loop(ticks, cancel, stop, done)
	s.notify()
}

// loop runs scheduling passes until stopped
func (s *Sequencer) loop(ticks <-chan time.Time, cancel func(), stop, done chan struct{}) {
	defer close(done)
	defer cancel()

	for {
		select {
		case <-stop:
			return
		case <-ticks:
			s.Tick()
		}
	}
}

// Tick runs one scheduling pass. The loop calls it on every tick; tests
// call it directly.
func (s *Sequencer) Tick() {
	s.mu.Lock()
	if !s.running || !s.out.Ready() {
		s.mu.Unlock()
		return
	}
	before := s.clock.step
	s.schedule()
	moved := s.clock.step != before
	s.mu.Unlock()

	if moved {
		s.notify()
	}
}

// schedule dispatches every step that starts inside the lookahead window.
// Caller holds mu.
func (s *Sequencer) schedule() {
	now := s.out.CurrentTime()
	s.prune(now)

	// Clock stalled (device suspended): resync instead of bursting every
	// missed step at once
	if s.clock.nextStepTime < now-Lookahead {
		debug.Log("bgm", "resync: behind by %.3fs", now-s.clock.nextStepTime)
		s.clock.nextStepTime = now + StartLead
	}

	for s.clock.nextStepTime < now+Lookahead {
		s.dispatchStep(s.clock.step, s.clock.nextStepTime)
		s.clock.step = (s.clock.step + 1) % s.song.LoopLength
		s.clock.nextStepTime += s.clock.secondsPerStep()
	}
}

func (s *Sequencer) dispatchStep(step int, at float64) {
	spp := s.clock.secondsPerStep()
	for _, t := range s.song.Tracks {
		for _, h := range t.Schedule.At(step) {
			d := Dispatch{
				Track:   t.Name,
				Channel: t.Channel,
				Step:    step,
				Time:    at,
				Hit:     h,
			}

			var v Voice
			if h.Pitch != nil {
				d.Duration = float64(h.Steps) * spp * t.Gate
				d.Volume = t.Volume
				v = s.out.Tone(at, synth.Tone{
					Freq:     h.Freq(),
					Duration: d.Duration,
					Wave:     t.Wave,
					Volume:   t.Volume,
					Attack:   t.Attack,
				})
			} else {
				dv, ok := t.Drums[h.Drum]
				if !ok {
					continue
				}
				d.Duration = dv.Duration
				d.Volume = dv.Volume
				v = s.out.Percussion(at, h.Drum, dv.Duration, dv.Volume)
			}

			if v != nil {
				s.voices = append(s.voices, activeVoice{voice: v, end: v.End()})
			}
			debug.LogEvery(16, "bgm", "dispatch: %s step=%d at=%.3f", t.Name, step, at)
			for _, o := range s.observers {
				o.OnDispatch(d)
			}
		}
	}
}

// prune drops registry entries whose voices have finished
func (s *Sequencer) prune(now float64) {
	kept := s.voices[:0]
	for _, av := range s.voices {
		if av.end > now {
			kept = append(kept, av)
		}
	}
	for i := len(kept); i < len(s.voices); i++ {
		s.voices[i] = activeVoice{}
	}
	s.voices = kept
}

// Stop halts playback, silences every pending or sounding voice and
// resets to step 0. Waits for the scheduling loop to exit.
func (s *Sequencer) Stop() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stopChan, s.done
	s.stopChan, s.done = nil, nil
	s.mu.Unlock()

	close(stop)
	<-done

	s.mu.Lock()
	n := len(s.voices)
	for _, av := range s.voices {
		av.voice.Silence()
	}
	s.voices = nil
	s.clock.step = 0
	for _, o := range s.observers {
		o.OnStop()
	}
	s.mu.Unlock()

	debug.Log("bgm", "Stop: silenced %d voices", n)
	s.notify()
}

// SetTempo changes the tempo from the next step on. Values outside
// (0, MaxTempo] are ignored.
func (s *Sequencer) SetTempo(bpm float64) {
	if bpm <= 0 || bpm > MaxTempo {
		return
	}
	s.mu.Lock()
	s.clock.tempo = bpm
	s.mu.Unlock()
	s.notify()
}

// Tempo returns the current BPM
func (s *Sequencer) Tempo() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.tempo
}

// IsRunning reports whether the loop is playing
func (s *Sequencer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ActiveVoices returns the number of registered voices
func (s *Sequencer) ActiveVoices() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.voices)
}

// State is a snapshot for display
type State struct {
	Step       int
	LoopLength int
	Running    bool
	Tempo      float64
}

// State returns the current playback state. Step is the next step to be
// scheduled, which runs Lookahead ahead of what is audible.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Step:       s.clock.step,
		LoopLength: s.song.LoopLength,
		Running:    s.running,
		Tempo:      s.clock.tempo,
	}
}

// Song returns the song being played
func (s *Sequencer) Song() *Song {
	return s.song
}

func (s *Sequencer) notify() {
	select {
	case s.UpdateChan <- struct{}{}:
	default:
	}
}

// engineOutput adapts a synth.Engine to Output
type engineOutput struct {
	e *synth.Engine
}

// EngineOutput schedules onto e
func EngineOutput(e *synth.Engine) Output {
	return engineOutput{e: e}
}

func (o engineOutput) Ready() bool          { return o.e.Ready() }
func (o engineOutput) CurrentTime() float64 { return o.e.CurrentTime() }

func (o engineOutput) Tone(at float64, t synth.Tone) Voice {
	if v := o.e.ScheduleTone(at, t); v != nil {
		return v
	}
	return nil
}

func (o engineOutput) Percussion(at float64, kind synth.Percussion, dur, vol float64) Voice {
	if v := o.e.SchedulePercussion(at, kind, dur, vol); v != nil {
		return v
	}
	return nil
}
