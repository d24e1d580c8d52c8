package midi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-chiptodo/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// Sender writes one MIDI message to an output
type Sender func(gomidi.Message) error

// ErrScanTimeout means the driver did not answer a port listing in time
var ErrScanTimeout = errors.New("midi port scan timed out")

const scanTimeout = 3 * time.Second

// outPorts lists output ports with a timeout (CoreMIDI can hang)
func outPorts() ([]drivers.Out, error) {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- gomidi.GetOutPorts()
	}()

	select {
	case ports := <-ch:
		return ports, nil
	case <-time.After(scanTimeout):
		return nil, ErrScanTimeout
	}
}

// OutPorts returns the names of the available output ports
func OutPorts() ([]string, error) {
	ports, err := outPorts()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.String()
	}
	return names, nil
}

// Open finds the output port called name and returns a sender for it
func Open(name string) (Sender, error) {
	ports, err := outPorts()
	if err != nil {
		return nil, err
	}
	for _, port := range ports {
		if port.String() == name {
			send, err := gomidi.SendTo(port)
			if err != nil {
				return nil, fmt.Errorf("open %q: %w", name, err)
			}
			return send, nil
		}
	}
	return nil, fmt.Errorf("midi out port %q not found", name)
}

// CloseDriver releases the MIDI driver
func CloseDriver() {
	gomidi.CloseDriver()
}

// PortEvent is emitted when the watched port appears or disappears
type PortEvent struct {
	Name      string
	Connected bool
	Send      Sender
}

// Watcher polls for one named output port so it can be plugged in any time
type Watcher struct {
	name     string
	pollRate time.Duration
	open     func(string) (Sender, error)
	list     func() ([]string, error)
	events   chan PortEvent

	mu        sync.Mutex
	connected bool
}

// NewWatcher watches for the output port called name
func NewWatcher(name string) *Watcher {
	return &Watcher{
		name:     name,
		pollRate: time.Second,
		open:     Open,
		list:     OutPorts,
		events:   make(chan PortEvent, 4),
	}
}

// Events returns connect/disconnect notifications
func (w *Watcher) Events() <-chan PortEvent {
	return w.events
}

// Connected reports whether the port is currently open
func (w *Watcher) Connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connected
}

// Run polls until ctx is done (blocking - run in goroutine)
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollRate)
	defer ticker.Stop()
	defer close(w.events)

	w.scan()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scan()
		}
	}
}

func (w *Watcher) scan() {
	names, err := w.list()
	if err != nil {
		// Driver hung: skip this scan
		debug.Log("midi", "scan: %v", err)
		return
	}
	present := false
	for _, n := range names {
		if n == w.name {
			present = true
			break
		}
	}

	w.mu.Lock()
	was := w.connected
	w.mu.Unlock()

	switch {
	case present && !was:
		send, err := w.open(w.name)
		if err != nil {
			debug.Log("midi", "open %s: %v", w.name, err)
			return
		}
		w.setConnected(true)
		debug.Log("midi", "connected %s", w.name)
		w.emit(PortEvent{Name: w.name, Connected: true, Send: send})
	case !present && was:
		w.setConnected(false)
		debug.Log("midi", "disconnected %s", w.name)
		w.emit(PortEvent{Name: w.name})
	}
}

func (w *Watcher) setConnected(c bool) {
	w.mu.Lock()
	w.connected = c
	w.mu.Unlock()
}

// emit never blocks the poll loop; a full channel drops the event
func (w *Watcher) emit(ev PortEvent) {
	select {
	case w.events <- ev:
	default:
		debug.Log("midi", "event dropped: %+v", ev.Connected)
	}
}
