package synth

import (
	"math"
	"testing"
)

func TestNoteToFreq(t *testing.T) {
	tests := []struct {
		name   NoteName
		octave int
		want   float64
		tol    float64
	}{
		{A, 4, 440.0, 0},
		{A, 5, 880.0, 0},
		{A, 3, 220.0, 0},
		{C, 4, 261.63, 0.01},
		{C, 5, 523.25, 0.01},
		{E, 5, 659.25, 0.01},
		{G, 5, 783.99, 0.01},
		{C, 6, 1046.5, 0.01},
		{CSharp, 4, 277.18, 0.01},
	}
	for _, tt := range tests {
		got := NoteToFreq(tt.name, tt.octave)
		if math.Abs(got-tt.want) > tt.tol {
			t.Errorf("NoteToFreq(%s, %d) = %v, want %v", tt.name, tt.octave, got, tt.want)
		}
	}
}

func TestOctaveDoubles(t *testing.T) {
	for name := range semitones {
		for oct := 0; oct < 8; oct++ {
			lo := NoteToFreq(name, oct)
			hi := NoteToFreq(name, oct+1)
			if math.Abs(hi/lo-2) > 1e-9 {
				t.Fatalf("%s%d -> %s%d ratio %v, want 2", name, oct, name, oct+1, hi/lo)
			}
		}
	}
}

func TestParsePitch(t *testing.T) {
	p, err := ParsePitch("C#4")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != CSharp || p.Octave != 4 || p.MIDINote() != 61 {
		t.Fatalf("got %+v key %d", p, p.MIDINote())
	}
	if p.String() != "C#4" {
		t.Fatalf("String() = %q", p.String())
	}

	for _, bad := range []string{"", "H4", "C", "Cx", "E#"} {
		if _, err := ParsePitch(bad); err == nil {
			t.Errorf("ParsePitch(%q) should fail", bad)
		}
	}
}
