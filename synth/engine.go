package synth

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go-chiptodo/debug"
)

const DefaultSampleRate = 44100

// Envelope and lifecycle timings, in seconds
const (
	DefaultAttack = 0.008 // tone attack
	Release       = 0.04  // tone release
	StopTail      = 0.01  // source keeps running past the release end
	StopLead      = 0.01  // fade length when a voice is silenced early

	KickStartFreq = 150.0
	KickEndFreq   = 40.0
	KickDrop      = 0.08
	kickTail      = 0.03
	hatTail       = 0.01
	noiseTail     = 0.02
	noisePad      = 0.05
	noiseCut      = 0.001
	silentLevel   = 0.001 // exponential ramps cannot reach zero
)

// Percussion selects a percussive hit
type Percussion int

const (
	NoPercussion Percussion = iota
	Kick
	Hat
	Noise
)

func (p Percussion) String() string {
	switch p {
	case Kick:
		return "kick"
	case Hat:
		return "hat"
	case Noise:
		return "noise"
	}
	return "none"
}

// Tone describes one oscillator note
type Tone struct {
	Freq     float64
	Duration float64 // seconds, release ends exactly here
	Wave     Waveform
	Volume   float64
	Detune   float64 // cents
	Attack   float64 // seconds, zero means DefaultAttack
}

// backend pulls rendered audio from the engine
type backend interface {
	Close() error
}

// Engine is a small software audio graph: voices are mixed into one master
// bus, scaled by the output gate, and pulled by the output device. The audio
// clock is the number of frames rendered so far.
type Engine struct {
	sampleRate int

	mu     sync.Mutex // guards voices, params, rng
	voices []*Voice
	rng    *rand.Rand
	gate   *Gate
	buf    []float32

	frames atomic.Int64
	ready  atomic.Bool

	initMu  sync.Mutex
	backend backend
}

// New creates an engine that opens the output device on Init
func New(sampleRate int) *Engine {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	e := &Engine{
		sampleRate: sampleRate,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	e.gate = newGate(e)
	return e
}

// NewOffline creates a ready engine with no device. Its clock only moves
// when Render is called.
func NewOffline(sampleRate int, seed int64) *Engine {
	e := New(sampleRate)
	e.rng = rand.New(rand.NewSource(seed))
	e.ready.Store(true)
	return e
}

// Init opens the output device. Safe to call repeatedly; only the first
// successful call does anything.
func (e *Engine) Init(ctx context.Context) error {
	e.initMu.Lock()
	defer e.initMu.Unlock()

	if e.ready.Load() {
		return nil
	}
	b, err := openBackend(ctx, e.sampleRate, e)
	if err != nil {
		debug.Log("audio", "backend open failed: %v", err)
		return fmt.Errorf("open audio output: %w", err)
	}
	e.backend = b
	e.mu.Lock()
	e.gate.apply(e.now())
	e.mu.Unlock()
	e.ready.Store(true)
	debug.Log("audio", "output ready at %d Hz", e.sampleRate)
	return nil
}

// Ready reports whether the output is initialized
func (e *Engine) Ready() bool {
	return e.ready.Load()
}

// Close releases the device and every voice. Later calls are no-ops.
func (e *Engine) Close() error {
	e.initMu.Lock()
	defer e.initMu.Unlock()

	if !e.ready.Swap(false) {
		return nil
	}
	var err error
	if e.backend != nil {
		err = e.backend.Close()
		e.backend = nil
	}
	e.mu.Lock()
	var done []func()
	for _, v := range e.voices {
		if f := v.release(); f != nil {
			done = append(done, f)
		}
	}
	e.voices = nil
	e.mu.Unlock()
	for _, f := range done {
		f()
	}
	return err
}

// SampleRate returns the output sample rate
func (e *Engine) SampleRate() int {
	return e.sampleRate
}

// Gate returns the master output gate
func (e *Engine) Gate() *Gate {
	return e.gate
}

func (e *Engine) now() float64 {
	return float64(e.frames.Load()) / float64(e.sampleRate)
}

// CurrentTime returns the audio clock in seconds (0 before Init)
func (e *Engine) CurrentTime() float64 {
	if !e.ready.Load() {
		return 0
	}
	return e.now()
}

// ActiveVoices returns how many voices the mixer currently holds
func (e *Engine) ActiveVoices() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.voices)
}

// PlayTone starts a tone now
func (e *Engine) PlayTone(freq, duration float64, wave Waveform, volume, detune float64) {
	e.ScheduleTone(e.CurrentTime(), Tone{
		Freq:     freq,
		Duration: duration,
		Wave:     wave,
		Volume:   volume,
		Detune:   detune,
	})
}

// ScheduleTone starts a tone at audio time at (clamped to now). Returns nil
// when the output is not ready or the tone is empty.
func (e *Engine) ScheduleTone(at float64, t Tone) *Voice {
	if !e.ready.Load() || t.Duration <= 0 || t.Freq <= 0 {
		return nil
	}
	attack := t.Attack
	if attack <= 0 {
		attack = DefaultAttack
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if now := e.now(); at < now {
		at = now
	}

	gain := NewParam(0)
	gain.SetValueAtTime(0, at)
	gain.LinearRampToValueAtTime(t.Volume, at+attack)
	if holdEnd := at + t.Duration - Release; holdEnd > at+attack {
		gain.SetValueAtTime(t.Volume, holdEnd)
	}
	gain.LinearRampToValueAtTime(0, at+t.Duration)

	return e.add(&Voice{
		engine: e,
		src:    newOscillator(t.Wave, t.Freq, t.Detune, e.sampleRate),
		gain:   gain,
		start:  at,
		stop:   at + t.Duration + StopTail,
	})
}

// PlayPercussion starts a percussive hit now
func (e *Engine) PlayPercussion(kind Percussion, duration, volume float64) {
	e.SchedulePercussion(e.CurrentTime(), kind, duration, volume)
}

// SchedulePercussion starts a percussive hit at audio time at
func (e *Engine) SchedulePercussion(at float64, kind Percussion, duration, volume float64) *Voice {
	if !e.ready.Load() || duration <= 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if now := e.now(); at < now {
		at = now
	}

	v := &Voice{engine: e, start: at}
	switch kind {
	case Kick:
		osc := newOscillator(Sine, KickStartFreq, 0, e.sampleRate)
		osc.freq.SetValueAtTime(KickStartFreq, at)
		osc.freq.ExponentialRampToValueAtTime(KickEndFreq, at+KickDrop)
		v.src = osc
		v.gain = NewParam(volume)
		v.gain.SetValueAtTime(volume, at)
		v.gain.ExponentialRampToValueAtTime(silentLevel, at+duration)
		v.stop = at + duration + kickTail

	case Hat:
		n := e.frameCount(duration + hatTail)
		v.src = newHighPass(newNoiseBuffer(e.rng, n), HatCutoff, e.sampleRate)
		v.gain = NewParam(volume)
		v.gain.SetValueAtTime(volume, at)
		v.gain.ExponentialRampToValueAtTime(silentLevel, at+duration)
		v.stop = at + duration + hatTail

	case Noise:
		n := e.frameCount(duration + noisePad)
		v.src = newNoiseBuffer(e.rng, n)
		v.gain = NewParam(0)
		v.gain.SetValueAtTime(0, at)
		v.gain.LinearRampToValueAtTime(volume, at+DefaultAttack)
		v.gain.ExponentialRampToValueAtTime(silentLevel, at+duration)
		v.gain.SetValueAtTime(0, at+duration+noiseCut)
		v.stop = at + duration + noiseTail

	default:
		return nil
	}
	return e.add(v)
}

func (e *Engine) frameCount(seconds float64) int {
	return int(math.Ceil(seconds * float64(e.sampleRate)))
}

// add registers a voice. Called with e.mu held.
func (e *Engine) add(v *Voice) *Voice {
	e.voices = append(e.voices, v)
	debug.LogEvery(64, "audio", "voice added, active=%d", len(e.voices))
	return v
}

// Render mixes the next len(out) frames and advances the audio clock.
// Voices whose stop time has passed are released.
func (e *Engine) Render(out []float32) {
	var done []func()

	e.mu.Lock()
	start := e.frames.Load()
	sr := float64(e.sampleRate)
	for i := range out {
		t := float64(start+int64(i)) / sr
		var sum float64
		for idx := 0; idx < len(e.voices); idx++ {
			v := e.voices[idx]
			s, finished := v.render(t)
			sum += s
			if finished {
				if f := v.release(); f != nil {
					done = append(done, f)
				}
				e.voices = append(e.voices[:idx], e.voices[idx+1:]...)
				idx--
			}
		}
		sum *= e.gate.level.ValueAt(t)
		if sum > 1 {
			sum = 1
		} else if sum < -1 {
			sum = -1
		}
		out[i] = float32(sum)
	}
	e.frames.Add(int64(len(out)))
	e.mu.Unlock()

	for _, f := range done {
		f()
	}
}

// Read implements io.Reader for the output device: mono float32 little endian
func (e *Engine) Read(p []byte) (int, error) {
	n := len(p) / 4
	if cap(e.buf) < n {
		e.buf = make([]float32, n)
	}
	samples := e.buf[:n]
	e.Render(samples)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return n * 4, nil
}
