package synth

import (
	"fmt"
	"math"
	"strconv"
)

// NoteName is a pitch class in sharps-only spelling
type NoteName string

const (
	C      NoteName = "C"
	CSharp NoteName = "C#"
	D      NoteName = "D"
	DSharp NoteName = "D#"
	E      NoteName = "E"
	F      NoteName = "F"
	FSharp NoteName = "F#"
	G      NoteName = "G"
	GSharp NoteName = "G#"
	A      NoteName = "A"
	ASharp NoteName = "A#"
	B      NoteName = "B"
)

var semitones = map[NoteName]int{
	C: 0, CSharp: 1, D: 2, DSharp: 3, E: 4, F: 5,
	FSharp: 6, G: 7, GSharp: 8, A: 9, ASharp: 10, B: 11,
}

// Reference tuning: A4 = 440 Hz, MIDI key 69
const (
	RefFreq = 440.0
	RefKey  = 69
)

// Pitch is a note name plus octave (scientific pitch notation, C4 = middle C)
type Pitch struct {
	Name   NoteName
	Octave int
}

// MIDINote returns the MIDI key number (C4 = 60)
func (p Pitch) MIDINote() int {
	return (p.Octave+1)*12 + semitones[p.Name]
}

// Freq returns the equal-tempered frequency in Hz
func (p Pitch) Freq() float64 {
	return KeyToFreq(p.MIDINote())
}

func (p Pitch) String() string {
	return fmt.Sprintf("%s%d", p.Name, p.Octave)
}

// KeyToFreq converts a MIDI key number to Hz
func KeyToFreq(key int) float64 {
	if key == RefKey {
		return RefFreq
	}
	return RefFreq * math.Pow(2, float64(key-RefKey)/12)
}

// NoteToFreq is shorthand for Pitch{name, octave}.Freq()
func NoteToFreq(name NoteName, octave int) float64 {
	return Pitch{Name: name, Octave: octave}.Freq()
}

// ParsePitch parses "E5", "C#4", "A-1" style notation
func ParsePitch(s string) (Pitch, error) {
	if len(s) < 2 {
		return Pitch{}, fmt.Errorf("invalid pitch %q", s)
	}
	nameLen := 1
	if s[1] == '#' {
		nameLen = 2
	}
	name := NoteName(s[:nameLen])
	if _, ok := semitones[name]; !ok {
		return Pitch{}, fmt.Errorf("invalid note name in %q", s)
	}
	octave, err := strconv.Atoi(s[nameLen:])
	if err != nil {
		return Pitch{}, fmt.Errorf("invalid octave in %q: %w", s, err)
	}
	return Pitch{Name: name, Octave: octave}, nil
}

// MustParsePitch is ParsePitch for static composition data
func MustParsePitch(s string) Pitch {
	p, err := ParsePitch(s)
	if err != nil {
		panic(err)
	}
	return p
}
