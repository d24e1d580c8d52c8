package bgm

import (
	"fmt"

	"go-chiptodo/synth"
)

// Hit is a sounding event placed on a step
type Hit struct {
	Pitch *synth.Pitch
	Drum  synth.Percussion
	Steps int
}

// Freq returns the hit's pitch in Hz, or 0 for drums
func (h Hit) Freq() float64 {
	if h.Pitch == nil {
		return 0
	}
	return h.Pitch.Freq()
}

// Schedule maps each step of the loop to the hits starting there. Slots
// are a dense array since loops are short.
type Schedule struct {
	slots [][]Hit
}

// Compile places every non-rest event at its running step offset. Events
// past loopLength are dropped; Validate reports them.
func Compile(events []Event, loopLength int) Schedule {
	s := Schedule{slots: make([][]Hit, loopLength)}
	offset := 0
	for _, ev := range events {
		if !ev.IsRest() && offset >= 0 && offset < loopLength {
			s.slots[offset] = append(s.slots[offset], Hit{Pitch: ev.Pitch, Drum: ev.Drum, Steps: ev.Steps})
		}
		offset += ev.Steps
	}
	return s
}

// Validate checks a track against its loop length
func Validate(events []Event, loopLength int) error {
	total := 0
	for i, ev := range events {
		if ev.Steps <= 0 {
			return fmt.Errorf("event %d: duration %d steps, must be positive", i, ev.Steps)
		}
		if ev.Pitch != nil && ev.Drum != synth.NoPercussion {
			return fmt.Errorf("event %d: both pitch and drum set", i)
		}
		total += ev.Steps
	}
	if total != loopLength {
		return fmt.Errorf("track spans %d steps, loop is %d", total, loopLength)
	}
	return nil
}

// At returns the hits starting at step (wrapped into the loop)
func (s Schedule) At(step int) []Hit {
	n := len(s.slots)
	if n == 0 {
		return nil
	}
	step %= n
	if step < 0 {
		step += n
	}
	return s.slots[step]
}

// Len returns the loop length in steps
func (s Schedule) Len() int {
	return len(s.slots)
}

// Steps returns the occupied steps in ascending order
func (s Schedule) Steps() []int {
	var steps []int
	for i, hits := range s.slots {
		if len(hits) > 0 {
			steps = append(steps, i)
		}
	}
	return steps
}

// CompiledTrack pairs a track with its schedule
type CompiledTrack struct {
	Track
	Schedule Schedule
}

// Song is a validated, compiled composition
type Song struct {
	Name       string
	LoopLength int
	Tempo      float64
	Tracks     []CompiledTrack
}

// Build validates and compiles every track of c
func Build(c Composition) (*Song, error) {
	if c.LoopLength <= 0 {
		return nil, fmt.Errorf("%s: loop length %d", c.Name, c.LoopLength)
	}
	if c.Tempo <= 0 || c.Tempo > MaxTempo {
		return nil, fmt.Errorf("%s: tempo %.1f out of range", c.Name, c.Tempo)
	}
	song := &Song{
		Name:       c.Name,
		LoopLength: c.LoopLength,
		Tempo:      c.Tempo,
	}
	for _, t := range c.Tracks {
		if err := Validate(t.Events, c.LoopLength); err != nil {
			return nil, fmt.Errorf("%s/%s: %w", c.Name, t.Name, err)
		}
		song.Tracks = append(song.Tracks, CompiledTrack{
			Track:    t,
			Schedule: Compile(t.Events, c.LoopLength),
		})
	}
	return song, nil
}

// MustBuild is Build for compositions written into the program. A broken
// composition is an authoring bug, so it panics.
func MustBuild(c Composition) *Song {
	s, err := Build(c)
	if err != nil {
		panic(fmt.Sprintf("bad composition: %v", err))
	}
	return s
}
