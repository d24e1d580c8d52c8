package bgm

import (
	"go-chiptodo/synth"
)

// Event is one entry of a track: a pitched note, a drum hit, or a rest,
// lasting Steps sixteenth notes.
type Event struct {
	Pitch *synth.Pitch
	Drum  synth.Percussion
	Steps int
}

// Note is a pitched event in "C#4" notation
func Note(pitch string, steps int) Event {
	p := synth.MustParsePitch(pitch)
	return Event{Pitch: &p, Steps: steps}
}

// Drum is a percussion event
func Drum(kind synth.Percussion, steps int) Event {
	return Event{Drum: kind, Steps: steps}
}

// Rest is silence
func Rest(steps int) Event {
	return Event{Steps: steps}
}

// IsRest reports whether the event makes no sound
func (e Event) IsRest() bool {
	return e.Pitch == nil && e.Drum == synth.NoPercussion
}

// DrumVoice is how a track plays one percussion kind
type DrumVoice struct {
	Duration float64 // seconds
	Volume   float64
}

// Track is one voice of a composition. Melodic tracks sound their pitches
// with Wave; drum tracks look hits up in Drums.
type Track struct {
	Name    string
	Events  []Event
	Wave    synth.Waveform
	Volume  float64
	Gate    float64 // fraction of the written length that sounds
	Attack  float64 // seconds
	Drums   map[synth.Percussion]DrumVoice
	Channel uint8 // MIDI channel when mirrored, 0-15
}

// Composition is a set of tracks that loop together
type Composition struct {
	Name       string
	LoopLength int // steps
	Tempo      float64
	Tracks     []Track
}
