package bgm

import (
	"time"

	"go-chiptodo/synth"
)

// bounceTail is rendered after the last loop so the final notes can fade
const bounceTail = 0.1

// LoopSeconds is the length of one pass through the song at its tempo
func (s *Song) LoopSeconds() float64 {
	return float64(s.LoopLength) * 60 / s.Tempo / 4
}

// Bounce renders loops passes of song to mono samples using an offline
// engine driven by the same sequencer the live loop uses.
func Bounce(song *Song, sampleRate, loops int) []float32 {
	if loops < 1 {
		loops = 1
	}
	engine := synth.NewOffline(sampleRate, 1)
	defer engine.Close()

	seq := NewSequencer(EngineOutput(engine), engine.Gate(), song)
	seq.SetTicker(func(time.Duration) (<-chan time.Time, func()) {
		return nil, func() {}
	})
	seq.Start()

	end := StartLead + float64(loops)*song.LoopSeconds()
	chunk := int(Interval.Seconds() * float64(sampleRate))
	total := int((end + bounceTail) * float64(sampleRate))

	out := make([]float32, total)
	for pos := 0; pos < total; pos += chunk {
		if seq.IsRunning() && engine.CurrentTime() >= end-1e-9 {
			seq.Stop()
		}
		seq.Tick()
		n := chunk
		if pos+n > total {
			n = total - pos
		}
		engine.Render(out[pos : pos+n])
	}
	seq.Stop()
	return out
}
