package midi

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"go-chiptodo/bgm"
	"go-chiptodo/synth"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func testSong(t *testing.T) *bgm.Song {
	t.Helper()
	song, err := bgm.Build(bgm.Composition{
		Name:       "test",
		LoopLength: 4,
		Tempo:      120,
		Tracks: []bgm.Track{
			{Name: "lead", Events: []bgm.Event{bgm.Note("A4", 2), bgm.Note("C5", 2)}, Volume: 0.08, Gate: 0.5, Channel: 0},
			{Name: "drums", Events: []bgm.Event{bgm.Drum(synth.Kick, 4)}, Drums: bgm.DefaultDrums, Channel: 9},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return song
}

type note struct {
	tick uint32
	ch   uint8
	key  uint8
	on   bool
}

func readNotes(t *testing.T, s *smf.SMF, track int) []note {
	t.Helper()
	var out []note
	var tick uint32
	for _, ev := range s.Tracks[track] {
		tick += ev.Delta
		var ch, key, vel uint8
		switch {
		case ev.Message.GetNoteStart(&ch, &key, &vel):
			out = append(out, note{tick, ch, key, true})
		case ev.Message.GetNoteEnd(&ch, &key):
			out = append(out, note{tick, ch, key, false})
		}
	}
	return out
}

func TestExport(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(testSong(t), &buf, 2); err != nil {
		t.Fatalf("Export: %v", err)
	}
	s, err := smf.ReadFrom(&buf)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if len(s.Tracks) != 3 {
		t.Fatalf("tracks = %d, want 3", len(s.Tracks))
	}
	if tc := s.TempoChanges(); len(tc) == 0 || tc[0].BPM != 120 {
		t.Fatalf("tempo changes = %+v", tc)
	}

	lead := readNotes(t, s, 1)
	want := []note{
		{0, 0, 69, true}, {240, 0, 69, false},
		{480, 0, 72, true}, {720, 0, 72, false},
		{960, 0, 69, true}, {1200, 0, 69, false},
		{1440, 0, 72, true}, {1680, 0, 72, false},
	}
	if len(lead) != len(want) {
		t.Fatalf("lead notes = %+v", lead)
	}
	for i := range want {
		if lead[i] != want[i] {
			t.Errorf("lead[%d] = %+v, want %+v", i, lead[i], want[i])
		}
	}

	drums := readNotes(t, s, 2)
	// 0.12s kick at 0.125s per step is just under one step
	if len(drums) != 4 || drums[0] != (note{0, 9, 36, true}) || drums[1] != (note{230, 9, 36, false}) {
		t.Fatalf("drum notes = %+v", drums)
	}
}

func TestExportDefaultSong(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(bgm.Default, &buf, 1); err != nil {
		t.Fatalf("Export: %v", err)
	}
	s, err := smf.ReadFrom(&buf)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if len(s.Tracks) != 1+len(bgm.Default.Tracks) {
		t.Fatalf("tracks = %d", len(s.Tracks))
	}
	melody := readNotes(t, s, 1)
	if len(melody) == 0 || melody[0].key != 76 {
		t.Fatalf("melody starts with %+v, want E5 (76)", melody)
	}
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return true
}

type fakeClock float64

func (c fakeClock) CurrentTime() float64 { return float64(c) }

func newTestMirror(now float64) (*Mirror, *[]*fakeTimer, *[]gomidi.Message) {
	m := NewMirror(fakeClock(now))
	var timers []*fakeTimer
	m.after = func(d time.Duration, f func()) stopper {
		ft := &fakeTimer{d: d, f: f}
		timers = append(timers, ft)
		return ft
	}
	var sent []gomidi.Message
	m.SetSender(func(msg gomidi.Message) error {
		sent = append(sent, msg)
		return nil
	})
	return m, &timers, &sent
}

func TestMirrorDelaysToAudioClock(t *testing.T) {
	m, timers, sent := newTestMirror(1.0)
	p := synth.MustParsePitch("A4")
	m.OnDispatch(bgm.Dispatch{Channel: 2, Time: 1.1, Duration: 0.2, Volume: 0.08, Hit: bgm.Hit{Pitch: &p, Steps: 2}})

	if len(*timers) != 2 {
		t.Fatalf("scheduled %d messages", len(*timers))
	}
	on, off := (*timers)[0], (*timers)[1]
	if d := on.d - 100*time.Millisecond; d < -time.Millisecond || d > time.Millisecond {
		t.Fatalf("note on after %v, want 100ms", on.d)
	}
	if d := off.d - 300*time.Millisecond; d < -time.Millisecond || d > time.Millisecond {
		t.Fatalf("note off after %v, want 300ms", off.d)
	}

	on.f()
	off.f()
	var ch, key, vel uint8
	if len(*sent) != 2 || !(*sent)[0].GetNoteOn(&ch, &key, &vel) || ch != 2 || key != 69 || vel != 64 {
		t.Fatalf("sent %v", *sent)
	}
	if m.Pending() != 0 {
		t.Fatalf("pending = %d", m.Pending())
	}
}

func TestMirrorStopCancelsAndSilences(t *testing.T) {
	m, timers, sent := newTestMirror(0)
	m.OnDispatch(bgm.Dispatch{Channel: 9, Time: 0.5, Duration: 0.12, Volume: 0.06, Hit: bgm.Hit{Drum: synth.Kick, Steps: 1}})
	m.OnStop()

	for i, ft := range *timers {
		if !ft.stopped {
			t.Errorf("timer %d not stopped", i)
		}
	}
	// A timer that fires after stop sends nothing
	(*timers)[0].f()

	var ch, cc, val uint8
	if len(*sent) != 1 || !(*sent)[0].GetControlChange(&ch, &cc, &val) || ch != 9 || cc != allNotesOff {
		t.Fatalf("sent %v", *sent)
	}
}

func TestMirrorDetachedSendsNothing(t *testing.T) {
	m := NewMirror(fakeClock(0))
	p := synth.MustParsePitch("C4")
	m.OnDispatch(bgm.Dispatch{Time: 0, Duration: 0.1, Hit: bgm.Hit{Pitch: &p}})
	if m.Pending() != 0 || m.Attached() {
		t.Fatal("detached mirror scheduled messages")
	}
}

func TestKeyAndVelocity(t *testing.T) {
	if k, ok := Key(bgm.Hit{Drum: synth.Hat}); !ok || k != 42 {
		t.Fatalf("hat key = %d", k)
	}
	if _, ok := Key(bgm.Hit{}); ok {
		t.Fatal("rest has a key")
	}
	if Velocity(0) != 1 || Velocity(1) != 127 || Velocity(0.12) != 96 {
		t.Fatal("velocity mapping")
	}
}

func TestWatcherConnectsAndDisconnects(t *testing.T) {
	ports := []string{"Other"}
	w := NewWatcher("Synth")
	w.list = func() ([]string, error) { return ports, nil }
	w.open = func(string) (Sender, error) {
		return func(gomidi.Message) error { return nil }, nil
	}

	w.scan()
	if w.Connected() {
		t.Fatal("connected to missing port")
	}
	ports = append(ports, "Synth")
	w.scan()
	ev := <-w.Events()
	if !ev.Connected || ev.Send == nil || !w.Connected() {
		t.Fatalf("connect event = %+v", ev)
	}
	ports = ports[:1]
	w.scan()
	if ev := <-w.Events(); ev.Connected || w.Connected() {
		t.Fatalf("disconnect event = %+v", ev)
	}

	// A hung driver changes nothing
	w.list = func() ([]string, error) { return nil, ErrScanTimeout }
	w.scan()
	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestWatcherRunStops(t *testing.T) {
	w := NewWatcher("Synth")
	w.list = func() ([]string, error) { return nil, errors.New("no driver") }
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	cancel()
	<-done
	if _, ok := <-w.Events(); ok {
		t.Fatal("events channel not closed")
	}
}

type tonePlayer struct {
	freqs []float64
	vols  []float64
}

func (p *tonePlayer) PlayTone(freq, dur float64, wave synth.Waveform, vol, detune float64) {
	p.freqs = append(p.freqs, freq)
	p.vols = append(p.vols, vol)
}

func TestInputPlayAlong(t *testing.T) {
	in := &Input{noteChan: make(chan NoteEvent, 4)}
	in.handle(gomidi.NoteOn(0, 69, 127))
	in.handle(gomidi.NoteOn(0, 60, 0)) // running-status note off
	in.handle(gomidi.NoteOff(0, 69))
	in.handle(gomidi.NoteOn(0, 81, 64))
	in.Close()

	p := &tonePlayer{}
	PlayAlong(in.Notes(), p)
	if len(p.freqs) != 2 || p.freqs[0] != 440 || p.freqs[1] != 880 {
		t.Fatalf("played %v", p.freqs)
	}
	if d := p.vols[0] - PlayAlongMaxVol; d > 1e-9 || d < -1e-9 {
		t.Fatalf("full velocity volume = %v", p.vols[0])
	}
}
