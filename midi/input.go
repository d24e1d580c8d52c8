package midi

import (
	"fmt"
	"time"

	"go-chiptodo/debug"
	"go-chiptodo/synth"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// NoteEvent is a note-on from a MIDI keyboard
type NoteEvent struct {
	Channel  uint8
	Note     uint8
	Velocity uint8
}

// Input listens to a MIDI keyboard
type Input struct {
	name     string
	stopFunc func()
	noteChan chan NoteEvent
}

// Listen opens the input port called name
func Listen(name string) (*Input, error) {
	ch := make(chan []drivers.In, 1)
	go func() { ch <- gomidi.GetInPorts() }()

	var ports []drivers.In
	select {
	case ports = <-ch:
	case <-time.After(scanTimeout):
		return nil, ErrScanTimeout
	}
	for _, port := range ports {
		if port.String() == name {
			return listenTo(name, port)
		}
	}
	return nil, fmt.Errorf("midi in port %q not found", name)
}

func listenTo(name string, port drivers.In) (*Input, error) {
	in := &Input{
		name:     name,
		noteChan: make(chan NoteEvent, 32),
	}
	stop, err := gomidi.ListenTo(port, func(msg gomidi.Message, timestampms int32) {
		in.handle(msg)
	})
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	in.stopFunc = stop
	debug.Log("midi", "listening on %s", name)
	return in, nil
}

// handle forwards note-ons without blocking the driver callback
func (in *Input) handle(msg gomidi.Message) {
	var channel, note, velocity uint8
	if msg.GetNoteOn(&channel, &note, &velocity) && velocity > 0 {
		select {
		case in.noteChan <- NoteEvent{Channel: channel, Note: note, Velocity: velocity}:
		default:
		}
	}
}

// Notes returns incoming note-ons
func (in *Input) Notes() <-chan NoteEvent {
	return in.noteChan
}

// Close stops listening and closes Notes
func (in *Input) Close() error {
	if in.stopFunc != nil {
		in.stopFunc()
	}
	close(in.noteChan)
	return nil
}

// TonePlayer is the synth call a played note turns into
type TonePlayer interface {
	PlayTone(freq, duration float64, wave synth.Waveform, volume, detune float64)
}

// PlayAlong length and voicing for keyboard notes
const (
	PlayAlongDuration = 0.2
	PlayAlongMaxVol   = 0.15
)

// PlayAlong sounds every note from notes on p until notes is closed
func PlayAlong(notes <-chan NoteEvent, p TonePlayer) {
	for ev := range notes {
		vol := PlayAlongMaxVol * float64(ev.Velocity) / 127
		p.PlayTone(synth.KeyToFreq(int(ev.Note)), PlayAlongDuration, synth.Square, vol, 0)
	}
}
