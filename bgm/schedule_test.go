package bgm

import (
	"strings"
	"testing"

	"go-chiptodo/synth"
)

func TestCompilePlacesEventsAtRunningOffset(t *testing.T) {
	events := []Event{Note("E5", 4), Rest(2), Note("G4", 2)}
	s := Compile(events, 8)

	if got := s.Steps(); len(got) != 2 || got[0] != 0 || got[1] != 6 {
		t.Fatalf("Steps = %v, want [0 6]", got)
	}
	hits := s.At(0)
	if len(hits) != 1 || hits[0].Pitch.String() != "E5" || hits[0].Steps != 4 {
		t.Fatalf("At(0) = %+v", hits)
	}
	if h := s.At(6)[0]; h.Pitch.String() != "G4" || h.Steps != 2 {
		t.Fatalf("At(6) = %+v", h)
	}
	for _, step := range []int{1, 2, 3, 4, 5, 7} {
		if len(s.At(step)) != 0 {
			t.Errorf("step %d not empty", step)
		}
	}
}

func TestCompileDrumsWrapAndRepeat(t *testing.T) {
	bar := []Event{Drum(synth.Kick, 1), Drum(synth.Hat, 1), Rest(2)}
	s := Compile(Repeat(bar, 2), 8)

	want := map[int]synth.Percussion{0: synth.Kick, 1: synth.Hat, 4: synth.Kick, 5: synth.Hat}
	for step, kind := range want {
		hits := s.At(step)
		if len(hits) != 1 || hits[0].Drum != kind {
			t.Errorf("At(%d) = %+v, want %v", step, hits, kind)
		}
	}
	// Wraps into the loop
	if h := s.At(12); len(h) != 1 || h[0].Drum != synth.Kick {
		t.Errorf("At(12) = %+v, want kick", h)
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	a := Compile(melody, 128)
	b := Compile(melody, 128)
	for step := 0; step < 128; step++ {
		ha, hb := a.At(step), b.At(step)
		if len(ha) != len(hb) {
			t.Fatalf("step %d differs", step)
		}
		for i := range ha {
			if ha[i].Freq() != hb[i].Freq() || ha[i].Steps != hb[i].Steps {
				t.Fatalf("step %d hit %d differs", step, i)
			}
		}
	}
}

func TestCompileAllRestsIsEmpty(t *testing.T) {
	s := Compile([]Event{Rest(4), Rest(4)}, 8)
	if len(s.Steps()) != 0 {
		t.Fatalf("Steps = %v, want none", s.Steps())
	}
}

func TestValidate(t *testing.T) {
	p := synth.MustParsePitch("C4")
	tests := []struct {
		name   string
		events []Event
		want   string
	}{
		{"ok", []Event{Note("C4", 4), Rest(4)}, ""},
		{"short", []Event{Note("C4", 4)}, "spans 4 steps"},
		{"long", []Event{Note("C4", 12)}, "spans 12 steps"},
		{"zero", []Event{Note("C4", 0), Rest(8)}, "must be positive"},
		{"negative", []Event{Rest(-1), Rest(9)}, "must be positive"},
		{"both", []Event{{Pitch: &p, Drum: synth.Kick, Steps: 8}}, "both pitch and drum"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.events, 8)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestDefaultCompositionTracksFillLoop(t *testing.T) {
	if Default.LoopLength != 128 || Default.Tempo != 85 {
		t.Fatalf("default loop = %d steps at %v bpm", Default.LoopLength, Default.Tempo)
	}
	for _, tr := range DefaultComposition.Tracks {
		if err := Validate(tr.Events, 128); err != nil {
			t.Errorf("%s: %v", tr.Name, err)
		}
	}

	// The last hit of every track ends inside the loop
	for _, tr := range Default.Tracks {
		steps := tr.Schedule.Steps()
		if len(steps) == 0 {
			t.Fatalf("%s: empty schedule", tr.Name)
		}
		last := steps[len(steps)-1]
		for _, h := range tr.Schedule.At(last) {
			if last+h.Steps > Default.LoopLength {
				t.Errorf("%s: hit at %d for %d steps overruns %d", tr.Name, last, h.Steps, Default.LoopLength)
			}
		}
	}

	var melodyTrack, drumTrack CompiledTrack
	for _, tr := range Default.Tracks {
		switch tr.Name {
		case "melody":
			melodyTrack = tr
		case "drums":
			drumTrack = tr
		}
	}
	if h := melodyTrack.Schedule.At(0); len(h) != 1 || h[0].Pitch.String() != "E5" {
		t.Fatalf("melody step 0 = %+v, want E5", h)
	}
	// Kicks on beats 1 and 3 of every bar
	for bar := 0; bar < DefaultBars; bar++ {
		for _, step := range []int{0, 8} {
			h := drumTrack.Schedule.At(bar*StepsPerBar + step)
			if len(h) != 1 || h[0].Drum != synth.Kick {
				t.Fatalf("bar %d step %d = %+v, want kick", bar, step, h)
			}
		}
	}
}

func TestBuildRejectsBadComposition(t *testing.T) {
	c := Composition{
		Name:       "broken",
		LoopLength: 8,
		Tempo:      120,
		Tracks:     []Track{{Name: "lead", Events: []Event{Note("C4", 3)}}},
	}
	if _, err := Build(c); err == nil || !strings.Contains(err.Error(), "broken/lead") {
		t.Fatalf("Build err = %v", err)
	}
	if _, err := Build(Composition{Name: "fast", LoopLength: 8, Tempo: MaxTempo + 1}); err == nil {
		t.Fatal("tempo above MaxTempo accepted")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("MustBuild did not panic")
		}
	}()
	MustBuild(c)
}
