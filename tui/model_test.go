package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"go-chiptodo/audio"
	"go-chiptodo/bgm"
	"go-chiptodo/synth"
	"go-chiptodo/theme"
	"go-chiptodo/todo"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	e := synth.NewOffline(8000, 1)
	am := audio.New(e, bgm.Default, audio.DefaultPrefs())
	am.Sequencer().SetTicker(func(time.Duration) (<-chan time.Time, func()) {
		return nil, func() {}
	})
	if err := am.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { am.Close() })
	return NewModel(am, todo.NewList(), theme.New(theme.MustBuiltin(theme.DefaultPalette)), todo.All)
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestAddTodo(t *testing.T) {
	m := newTestModel(t)
	saves := 0
	m.Save = func(*todo.List) error { saves++; return nil }

	m = press(m, "a", "buy", " ", "milk", "enter", "2L", "enter")
	if len(m.Todos.Items) != 1 {
		t.Fatalf("items = %d", len(m.Todos.Items))
	}
	got := m.Todos.Items[0]
	if got.Title != "buy milk" || got.Memo != "2L" {
		t.Fatalf("todo = %+v", got)
	}
	if saves != 1 {
		t.Fatalf("saves = %d", saves)
	}
	if !strings.Contains(m.View(), "buy milk") {
		t.Fatal("new todo not rendered")
	}
}

func TestEmptyTitleCancels(t *testing.T) {
	m := newTestModel(t)
	m = press(m, "a", "enter")
	if m.mode != modeList || len(m.Todos.Items) != 0 {
		t.Fatalf("mode=%v items=%d", m.mode, len(m.Todos.Items))
	}
}

func TestToggleFilterDelete(t *testing.T) {
	m := newTestModel(t)
	m.Todos.Add("one", "")
	m.Todos.Add("two", "")

	m = press(m, " ")
	if !m.Todos.Items[0].Completed {
		t.Fatal("first todo not completed")
	}

	m = press(m, "f")
	if m.filter != todo.Active || len(m.visible()) != 1 {
		t.Fatalf("filter=%s visible=%d", m.filter, len(m.visible()))
	}

	m = press(m, "d")
	if len(m.Todos.Items) != 1 || m.Todos.Items[0].Title != "two" {
		t.Fatalf("items after delete = %+v", m.Todos.Items)
	}
	if len(m.visible()) != 0 || m.cursor != 0 {
		t.Fatalf("visible=%d cursor=%d", len(m.visible()), m.cursor)
	}
}

func TestEditMemo(t *testing.T) {
	m := newTestModel(t)
	m.Todos.Add("one", "old")
	m = press(m, "e", "!", "enter")
	if m.Todos.Items[0].Memo != "old!" {
		t.Fatalf("memo = %q", m.Todos.Items[0].Memo)
	}

	m = press(m, "e", "x", "esc")
	if m.Todos.Items[0].Memo != "old!" {
		t.Fatal("esc should discard edits")
	}
}

func TestAudioKeys(t *testing.T) {
	m := newTestModel(t)
	start := m.Audio.Tempo()

	m = press(m, "+")
	if m.Audio.Tempo() != start+tempoStep {
		t.Fatalf("tempo = %v", m.Audio.Tempo())
	}
	m = press(m, "m")
	if !m.Audio.IsMuted() || m.Audio.IsLoopActive() {
		t.Fatal("mute should stop the loop")
	}
	if !strings.Contains(m.View(), "STOP") {
		t.Fatal("header should show STOP")
	}
	m = press(m, "b")
	if m.Audio.BGMEnabled() {
		t.Fatal("bgm still enabled")
	}
}
