package midi

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"go-chiptodo/bgm"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Resolution in ticks per quarter note; a step is a sixteenth
const (
	Resolution   = 960
	TicksPerStep = Resolution / 4
)

type timed struct {
	tick uint32
	off  bool
	msg  gomidi.Message
}

// Export writes song as a type 1 Standard MIDI File repeating it loops
// times: a tempo track plus one track per song track.
func Export(song *bgm.Song, w io.Writer, loops int) error {
	if loops < 1 {
		loops = 1
	}
	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(Resolution)

	var track0 smf.Track
	track0.Add(0, smf.MetaTrackSequenceName(song.Name))
	track0.Add(0, smf.MetaMeter(4, 4))
	track0.Add(0, smf.MetaTempo(song.Tempo))
	track0.Close(0)
	if err := sm.Add(track0); err != nil {
		return fmt.Errorf("add tempo track: %w", err)
	}

	secondsPerStep := 60 / song.Tempo / 4
	loopTicks := uint32(song.LoopLength * TicksPerStep)

	for _, t := range song.Tracks {
		var events []timed
		for loop := 0; loop < loops; loop++ {
			base := uint32(loop) * loopTicks
			for _, step := range t.Schedule.Steps() {
				for _, h := range t.Schedule.At(step) {
					key, ok := Key(h)
					if !ok {
						continue
					}
					var length, volume float64
					if h.Pitch != nil {
						length = float64(h.Steps*TicksPerStep) * t.Gate
						volume = t.Volume
					} else {
						dv, ok := t.Drums[h.Drum]
						if !ok {
							continue
						}
						length = dv.Duration / secondsPerStep * TicksPerStep
						volume = dv.Volume
					}
					on := base + uint32(step*TicksPerStep)
					off := on + uint32(math.Max(1, math.Round(length)))
					events = append(events,
						timed{tick: on, msg: gomidi.NoteOn(t.Channel, key, Velocity(volume))},
						timed{tick: off, off: true, msg: gomidi.NoteOff(t.Channel, key)},
					)
				}
			}
		}

		// Note offs first when ticks tie so repeated keys retrigger
		sort.SliceStable(events, func(i, j int) bool {
			if events[i].tick != events[j].tick {
				return events[i].tick < events[j].tick
			}
			return events[i].off && !events[j].off
		})

		var track smf.Track
		track.Add(0, smf.MetaTrackSequenceName(t.Name))
		var last uint32
		for _, ev := range events {
			track.Add(ev.tick-last, ev.msg)
			last = ev.tick
		}
		end := uint32(loops) * loopTicks
		var tail uint32
		if end > last {
			tail = end - last
		}
		track.Close(tail)
		if err := sm.Add(track); err != nil {
			return fmt.Errorf("add track %s: %w", t.Name, err)
		}
	}

	if _, err := sm.WriteTo(w); err != nil {
		return fmt.Errorf("write smf: %w", err)
	}
	return nil
}

// ExportFile writes song to path
func ExportFile(song *bgm.Song, path string, loops int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Export(song, f, loops); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
