package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-chiptodo/audio"
	"go-chiptodo/debug"
	"go-chiptodo/midi"
	"go-chiptodo/sfx"
	"go-chiptodo/theme"
	"go-chiptodo/todo"
	"go-chiptodo/widgets"
)

type mode int

const (
	modeList mode = iota
	modeTitle
	modeMemo // memo for a new todo
	modeEditMemo
)

// tempoStep is the +/- tempo change in BPM
const tempoStep = 5

type Model struct {
	Audio  *audio.Manager
	Todos  *todo.List
	Theme  *theme.Theme
	Mirror *midi.Mirror // may be nil

	// Save persists the todo list
	Save func(*todo.List) error
	// OnFilter is told about filter changes (config)
	OnFilter func(todo.Filter)

	filter   todo.Filter
	cursor   int
	mode     mode
	input    []rune
	title    string // pending title while entering its memo
	status   string
	quitting bool
}

type UpdateMsg struct{}

func NewModel(am *audio.Manager, list *todo.List, th *theme.Theme, filter todo.Filter) Model {
	return Model{
		Audio:  am,
		Todos:  list,
		Theme:  th,
		filter: filter,
		Save:   func(*todo.List) error { return nil },
	}
}

func ListenForUpdates(am *audio.Manager) tea.Cmd {
	return func() tea.Msg {
		<-am.Sequencer().UpdateChan
		return UpdateMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForUpdates(m.Audio)
}

// visible returns the filtered todos
func (m Model) visible() []todo.Todo {
	return m.Todos.Filtered(m.filter)
}

func (m Model) selected() (todo.Todo, bool) {
	items := m.visible()
	if m.cursor < 0 || m.cursor >= len(items) {
		return todo.Todo{}, false
	}
	return items[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) persist() {
	if err := m.Save(m.Todos); err != nil {
		debug.Log("todo", "save: %v", err)
		m.status = fmt.Sprintf("save failed: %v", err)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.mode != modeList {
			return m.updateInput(msg)
		}
		return m.updateList(msg)

	case UpdateMsg:
		return m, ListenForUpdates(m.Audio)
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.Audio.StopLoop()
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}

	case "a", "n":
		m.mode = modeTitle
		m.input = nil

	case " ", "enter", "x":
		if t, ok := m.selected(); ok {
			if done, _ := m.Todos.Toggle(t.ID); done {
				m.Audio.Trigger(sfx.Complete)
			} else {
				m.Audio.Trigger(sfx.Uncomplete)
			}
			m.persist()
			m.clampCursor()
		}

	case "d", "delete":
		if t, ok := m.selected(); ok {
			m.Todos.Delete(t.ID)
			m.Audio.Trigger(sfx.Delete)
			m.persist()
			m.clampCursor()
		}

	case "e":
		if t, ok := m.selected(); ok {
			m.mode = modeEditMemo
			m.input = []rune(t.Memo)
			m.Audio.Trigger(sfx.MemoToggle)
		}

	case "f", "tab":
		m.filter = m.filter.Next()
		m.cursor = 0
		m.Audio.Trigger(filterEffect(m.filter))
		if m.OnFilter != nil {
			m.OnFilter(m.filter)
		}

	case "m":
		if err := m.Audio.ToggleMute(); err != nil {
			m.status = fmt.Sprintf("no sound: %v", err)
		}

	case "b":
		if err := m.Audio.ToggleBGM(); err != nil {
			m.status = fmt.Sprintf("no sound: %v", err)
		}

	case "+", "=":
		m.Audio.SetTempo(m.Audio.Tempo() + tempoStep)

	case "-", "_":
		m.Audio.SetTempo(m.Audio.Tempo() - tempoStep)
	}
	return m, nil
}

func filterEffect(f todo.Filter) sfx.Effect {
	switch f {
	case todo.Active:
		return sfx.FilterActive
	case todo.Completed:
		return sfx.FilterCompleted
	}
	return sfx.FilterAll
}

// updateInput edits the line buffer for title and memo entry
func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		m.Audio.StopLoop()
		return m, tea.Quit

	case tea.KeyEsc:
		if m.mode == modeEditMemo {
			m.Audio.Trigger(sfx.MemoToggle)
		}
		m.mode = modeList
		m.input = nil
		m.title = ""

	case tea.KeyEnter:
		m.submit()

	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}

	case tea.KeySpace:
		m.input = append(m.input, ' ')

	case tea.KeyRunes:
		m.input = append(m.input, msg.Runes...)
	}
	return m, nil
}

func (m *Model) submit() {
	text := strings.TrimSpace(string(m.input))
	m.input = nil

	switch m.mode {
	case modeTitle:
		if text == "" {
			m.mode = modeList
			return
		}
		m.title = text
		m.mode = modeMemo

	case modeMemo:
		m.Todos.Add(m.title, text)
		m.title = ""
		m.mode = modeList
		m.Audio.Trigger(sfx.Add)
		// New todos are active and go on top
		if m.filter == todo.Completed {
			m.filter = todo.All
		}
		m.cursor = 0
		m.persist()

	case modeEditMemo:
		if t, ok := m.selected(); ok {
			m.Todos.UpdateMemo(t.ID, text)
			m.Audio.Trigger(sfx.MemoSave)
			m.persist()
		}
		m.mode = modeList
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	th := m.Theme
	st := m.Audio.State()

	headerStyle := lipgloss.NewStyle().Foreground(th.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	doneStyle := lipgloss.NewStyle().Foreground(th.Success()).Strikethrough(true)
	cursorStyle := lipgloss.NewStyle().Foreground(th.Cursor()).Bold(true)
	statusStyle := lipgloss.NewStyle().Foreground(th.Warning())

	// Header with audio status
	playState := "STOP"
	if st.Running {
		playState = "PLAY"
	}
	sound := th.Symbols.SoundOn
	if m.Audio.IsMuted() {
		sound = th.Symbols.SoundOff
	}
	bgm := "bgm:off"
	if m.Audio.BGMEnabled() {
		bgm = "bgm:on"
	}
	midiStatus := ""
	if m.Mirror != nil && m.Mirror.Attached() {
		midiStatus = "  MIDI"
	}
	header := headerStyle.Render(fmt.Sprintf("go-chiptodo  %c %s  %s  %3.0fbpm  step:%03d%s",
		sound, playState, bgm, st.Tempo, st.Step, midiStatus))

	meter := widgets.StepMeter{
		StepsPerBar: 16,
		Playhead:    th.Symbols.StepPlayhead,
		Beat:        th.Symbols.StepBeat,
		Empty:       th.Symbols.StepEmpty,
		On:          th.Palette.Lookup(theme.RoleActive),
		Off:         th.Palette.Lookup(theme.RoleMuted),
	}.Render(st.Step, st.LoopLength, st.Running)

	// Todo list
	var list strings.Builder
	items := m.visible()
	if len(items) == 0 {
		list.WriteString(dimStyle.Render("  nothing here - press a to add a todo"))
		list.WriteString("\n")
	}
	for i, t := range items {
		mark := th.Symbols.Open
		if t.Completed {
			mark = th.Symbols.Done
		}
		title := t.Title
		if t.Completed {
			title = doneStyle.Render(title)
		}
		line := fmt.Sprintf("%c %s", mark, title)
		if t.Memo != "" {
			line += " " + string(th.Symbols.HasMemo)
		}
		line += dimStyle.Render("  " + t.Age())

		if i == m.cursor {
			list.WriteString(cursorStyle.Render(string(th.Symbols.Cursor)) + " " + line)
		} else {
			list.WriteString("  " + line)
		}
		list.WriteString("\n")

		if i == m.cursor && t.Memo != "" && m.mode != modeEditMemo {
			list.WriteString(dimStyle.Render("    " + t.Memo))
			list.WriteString("\n")
		}
	}

	// Input line
	prompt := ""
	switch m.mode {
	case modeTitle:
		prompt = "title: "
	case modeMemo:
		prompt = "memo for " + m.title + ": "
	case modeEditMemo:
		prompt = "memo: "
	}

	var help string
	if m.mode == modeList {
		help = widgets.RenderKeyLine([]widgets.KeyBinding{
			{Key: "a", Desc: "add"}, {Key: "space", Desc: "done"}, {Key: "e", Desc: "memo"},
			{Key: "d", Desc: "delete"}, {Key: "f", Desc: "filter"}, {Key: "m", Desc: "mute"},
			{Key: "b", Desc: "bgm"}, {Key: "+/-", Desc: "tempo"}, {Key: "q", Desc: "quit"},
		})
	} else {
		help = widgets.RenderKeyLine([]widgets.KeyBinding{{Key: "enter", Desc: "ok"}, {Key: "esc", Desc: "cancel"}})
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n")
	out.WriteString(meter)
	out.WriteString("\n\n")
	out.WriteString(dimStyle.Render(fmt.Sprintf("[%s] %d/%d", m.filter, len(items), len(m.Todos.Items))))
	out.WriteString("\n")
	out.WriteString(list.String())
	if prompt != "" {
		out.WriteString("\n")
		out.WriteString(prompt + string(m.input) + "_")
		out.WriteString("\n")
	}
	if m.status != "" {
		out.WriteString("\n")
		out.WriteString(statusStyle.Render(m.status))
	}
	out.WriteString("\n")
	out.WriteString(dimStyle.Render(help))

	return out.String()
}
