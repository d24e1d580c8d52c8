package bgm

import (
	"math"
	"testing"
)

func TestBounce(t *testing.T) {
	song := fourStepSong(t)
	const rate = 8000
	out := Bounce(song, rate, 2)

	want := int((StartLead + 2*song.LoopSeconds() + bounceTail) * rate)
	if len(out) != want {
		t.Fatalf("len = %d, want %d", len(out), want)
	}

	// Silent lead-in, then the melody
	var lead, body float64
	for _, s := range out[:int(0.04*rate)] {
		lead = math.Max(lead, math.Abs(float64(s)))
	}
	for _, s := range out[int(0.1*rate):int(0.3*rate)] {
		body = math.Max(body, math.Abs(float64(s)))
	}
	if lead != 0 {
		t.Fatalf("sound before the first step: %v", lead)
	}
	if body < 0.01 {
		t.Fatalf("melody too quiet: %v", body)
	}

	// The tail is silent once the loop ends
	var tail float64
	for _, s := range out[len(out)-int(0.05*rate):] {
		tail = math.Max(tail, math.Abs(float64(s)))
	}
	if tail != 0 {
		t.Fatalf("sound after the last loop: %v", tail)
	}
}
