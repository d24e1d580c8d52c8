package synth

import (
	"math"
	"math/rand"
)

// Waveform selects the oscillator shape
type Waveform int

const (
	Square Waveform = iota
	Triangle
	Sawtooth
	Sine
)

func (w Waveform) String() string {
	switch w {
	case Square:
		return "square"
	case Triangle:
		return "triangle"
	case Sawtooth:
		return "sawtooth"
	case Sine:
		return "sine"
	}
	return "unknown"
}

// source produces one sample per call at audio time t
type source interface {
	next(t float64) float64
}

// oscillator is a naive (non band-limited) phase accumulator. Aliasing is
// part of the chiptune sound.
type oscillator struct {
	wave       Waveform
	freq       *Param
	detune     float64 // frequency multiplier from cents
	phase      float64
	sampleRate float64
}

func newOscillator(wave Waveform, freq float64, detuneCents float64, sampleRate int) *oscillator {
	return &oscillator{
		wave:       wave,
		freq:       NewParam(freq),
		detune:     math.Pow(2, detuneCents/1200),
		sampleRate: float64(sampleRate),
	}
}

func (o *oscillator) next(t float64) float64 {
	v := waveSample(o.wave, o.phase)
	o.phase += o.freq.ValueAt(t) * o.detune / o.sampleRate
	o.phase -= math.Floor(o.phase)
	return v
}

// waveSample evaluates a unit waveform at phase in [0,1)
func waveSample(w Waveform, phase float64) float64 {
	switch w {
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case Triangle:
		return 1 - 4*math.Abs(phase-0.5)
	case Sawtooth:
		return 2*phase - 1
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

// noiseBuffer plays a fixed buffer of uniform white noise once
type noiseBuffer struct {
	data []float32
	pos  int
}

func newNoiseBuffer(rng *rand.Rand, length int) *noiseBuffer {
	data := make([]float32, length)
	for i := range data {
		data[i] = float32(rng.Float64()*2 - 1)
	}
	return &noiseBuffer{data: data}
}

func (n *noiseBuffer) next(float64) float64 {
	if n.pos >= len(n.data) {
		return 0
	}
	v := n.data[n.pos]
	n.pos++
	return float64(v)
}

// highPass is an RBJ biquad high-pass filter wrapped around a source
type highPass struct {
	in                 source
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

// Default hat filter settings
const (
	HatCutoff = 8000.0
	filterQ   = math.Sqrt2 / 2
)

func newHighPass(in source, cutoff float64, sampleRate int) *highPass {
	w0 := 2 * math.Pi * cutoff / float64(sampleRate)
	cosw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * filterQ)
	a0 := 1 + alpha
	return &highPass{
		in: in,
		b0: (1 + cosw) / 2 / a0,
		b1: -(1 + cosw) / a0,
		b2: (1 + cosw) / 2 / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}
}

func (f *highPass) next(t float64) float64 {
	x := f.in.next(t)
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}
