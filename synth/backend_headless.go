//go:build headless

package synth

import (
	"context"
	"io"
	"time"
)

// headlessBackend drains the engine at real-time pace so the audio clock
// advances on machines without a sound device.
type headlessBackend struct {
	stop chan struct{}
	done chan struct{}
}

const headlessPeriod = 10 * time.Millisecond

func openBackend(_ context.Context, sampleRate int, r io.Reader) (backend, error) {
	b := &headlessBackend{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	buf := make([]byte, sampleRate*int(headlessPeriod/time.Millisecond)/1000*4)
	go func() {
		defer close(b.done)
		ticker := time.NewTicker(headlessPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-b.stop:
				return
			case <-ticker.C:
				r.Read(buf)
			}
		}
	}()
	return b, nil
}

func (b *headlessBackend) Close() error {
	close(b.stop)
	<-b.done
	return nil
}
