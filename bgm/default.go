package bgm

import (
	"go-chiptodo/synth"
)

// Chord progression: Cmaj7 Am7 Fmaj7 G7 Em7 Am7 Dm7 G7, one bar each,
// 16 sixteenth-note steps per bar.
const (
	StepsPerBar  = 16
	DefaultBars  = 8
	DefaultTempo = 85
)

var melody = []Event{
	// Cmaj7
	Note("E5", 4), Rest(2), Note("G4", 2), Note("A4", 4), Note("G4", 2), Note("E4", 2),
	// Am7
	Note("C5", 4), Note("A4", 2), Rest(2), Note("G4", 4), Note("E4", 4),
	// Fmaj7
	Note("A4", 2), Note("C5", 4), Rest(2), Note("D5", 4), Note("C5", 2), Note("A4", 2),
	// G7
	Note("B4", 4), Note("D5", 2), Rest(2), Note("G4", 6), Rest(2),
	// Em7
	Note("E4", 4), Note("G4", 2), Note("B4", 2), Rest(4), Note("A4", 4),
	// Am7
	Note("C5", 2), Note("E5", 4), Note("D5", 2), Note("C5", 4), Rest(2), Note("A4", 2),
	// Dm7
	Note("D4", 4), Note("A4", 2), Note("C5", 2), Note("D5", 4), Rest(4),
	// G7
	Note("B4", 2), Note("G4", 4), Rest(2), Note("D4", 4), Note("E4", 2), Rest(2),
}

var bass = []Event{
	Note("C2", 6), Rest(2), Note("G2", 4), Note("E2", 2), Note("C3", 2),
	Note("A2", 6), Rest(2), Note("E3", 4), Note("A2", 4),
	Note("F2", 6), Rest(2), Note("C3", 4), Note("A2", 2), Note("F2", 2),
	Note("G2", 6), Rest(2), Note("D3", 4), Note("B2", 2), Note("G2", 2),
	Note("E2", 6), Rest(2), Note("B2", 4), Note("G2", 2), Note("E2", 2),
	Note("A2", 6), Rest(2), Note("E3", 4), Note("C3", 2), Note("A2", 2),
	Note("D2", 6), Rest(2), Note("A2", 4), Note("F2", 2), Note("D3", 2),
	Note("G2", 6), Rest(2), Note("D3", 4), Note("F2", 2), Note("G2", 2),
}

// Kick on beats 1 and 3, hats on the offbeat eighths
var drumBar = []Event{
	Drum(synth.Kick, 1), Drum(synth.Hat, 1), Drum(synth.Hat, 1), Rest(1),
	Drum(synth.Hat, 1), Rest(1), Drum(synth.Hat, 1), Rest(1),
	Drum(synth.Kick, 1), Drum(synth.Hat, 1), Drum(synth.Hat, 1), Rest(1),
	Drum(synth.Hat, 1), Rest(1), Drum(synth.Hat, 1), Rest(1),
}

// Repeat concatenates n copies of a bar
func Repeat(bar []Event, n int) []Event {
	out := make([]Event, 0, len(bar)*n)
	for i := 0; i < n; i++ {
		out = append(out, bar...)
	}
	return out
}

// DefaultDrums are the kick and hat voicings of the default loop
var DefaultDrums = map[synth.Percussion]DrumVoice{
	synth.Kick: {Duration: 0.12, Volume: 0.06},
	synth.Hat:  {Duration: 0.04, Volume: 0.04},
}

// DefaultComposition is the relaxed background loop
var DefaultComposition = Composition{
	Name:       "todo-loop",
	LoopLength: StepsPerBar * DefaultBars,
	Tempo:      DefaultTempo,
	Tracks: []Track{
		{Name: "melody", Events: melody, Wave: synth.Square, Volume: 0.08, Gate: 0.9, Attack: 0.015, Channel: 0},
		{Name: "bass", Events: bass, Wave: synth.Triangle, Volume: 0.12, Gate: 0.85, Attack: 0.015, Channel: 1},
		{Name: "drums", Events: Repeat(drumBar, DefaultBars), Drums: DefaultDrums, Channel: 9},
	},
}

// Default is the compiled default loop
var Default = MustBuild(DefaultComposition)
