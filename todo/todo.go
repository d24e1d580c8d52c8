package todo

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go-chiptodo/debug"

	"github.com/dustin/go-humanize"
)

// Todo is one item, stored as {id, title, memo, completed, createdAt}
type Todo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Memo      string    `json:"memo"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// Age is the creation time relative to now ("3 minutes ago")
func (t Todo) Age() string {
	return humanize.Time(t.CreatedAt)
}

// Filter selects which todos are shown
type Filter string

const (
	All       Filter = "all"
	Active    Filter = "active"
	Completed Filter = "completed"
)

// Next cycles all -> active -> completed -> all
func (f Filter) Next() Filter {
	switch f {
	case All:
		return Active
	case Active:
		return Completed
	default:
		return All
	}
}

// ParseFilter maps unknown values to All
func ParseFilter(s string) Filter {
	switch Filter(s) {
	case Active, Completed:
		return Filter(s)
	}
	return All
}

// List is an ordered todo list, newest first
type List struct {
	Items []Todo
	now   func() time.Time
}

// NewList returns an empty list
func NewList() *List {
	return &List{now: time.Now}
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

// Add prepends a new todo and returns it
func (l *List) Add(title, memo string) Todo {
	t := Todo{
		ID:        newID(),
		Title:     title,
		Memo:      memo,
		CreatedAt: l.now().UTC(),
	}
	l.Items = append([]Todo{t}, l.Items...)
	return t
}

func (l *List) index(id string) int {
	for i := range l.Items {
		if l.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns the todo with id
func (l *List) Get(id string) (Todo, bool) {
	if i := l.index(id); i >= 0 {
		return l.Items[i], true
	}
	return Todo{}, false
}

// Toggle flips completion and reports the new state
func (l *List) Toggle(id string) (completed bool, ok bool) {
	i := l.index(id)
	if i < 0 {
		return false, false
	}
	l.Items[i].Completed = !l.Items[i].Completed
	return l.Items[i].Completed, true
}

// Delete removes the todo with id
func (l *List) Delete(id string) bool {
	i := l.index(id)
	if i < 0 {
		return false
	}
	l.Items = append(l.Items[:i], l.Items[i+1:]...)
	return true
}

// UpdateMemo replaces the memo of the todo with id
func (l *List) UpdateMemo(id, memo string) bool {
	i := l.index(id)
	if i < 0 {
		return false
	}
	l.Items[i].Memo = memo
	return true
}

// Filtered returns the todos matching f, in list order
func (l *List) Filtered(f Filter) []Todo {
	var out []Todo
	for _, t := range l.Items {
		switch f {
		case Active:
			if t.Completed {
				continue
			}
		case Completed:
			if !t.Completed {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// Load reads a list from path. A missing or unreadable file gives an
// empty list.
func Load(path string) *List {
	l := NewList()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			debug.Log("todo", "Load: %v", err)
		}
		return l
	}
	if err := json.Unmarshal(data, &l.Items); err != nil {
		debug.Log("todo", "Load: corrupt %s: %v", path, err)
		l.Items = nil
	}
	return l
}

// Save writes the list to path as a JSON array
func (l *List) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create todo dir: %w", err)
	}
	items := l.Items
	if items == nil {
		items = []Todo{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("save todos: %w", err)
	}
	return nil
}
