package synth

import (
	"context"
	"fmt"
	"sync"
)

// sharedDevice holds the process-wide output context. The device library
// allows one context per process, so a context whose startup outlived an
// Init deadline is kept and later calls wait on the same ready channel.
type sharedDevice[C any] struct {
	create func(sampleRate int) (C, <-chan struct{}, error)

	mu      sync.Mutex
	created bool
	ctx     C
	ready   <-chan struct{}
	rate    int
}

// get returns the context once it is ready, creating it on first use
func (d *sharedDevice[C]) get(ctx context.Context, sampleRate int) (C, error) {
	var zero C

	d.mu.Lock()
	if !d.created {
		c, ready, err := d.create(sampleRate)
		if err != nil {
			d.mu.Unlock()
			return zero, err
		}
		d.ctx, d.ready, d.rate, d.created = c, ready, sampleRate, true
	} else if d.rate != sampleRate {
		d.mu.Unlock()
		return zero, fmt.Errorf("output already open at %d Hz", d.rate)
	}
	c, ready := d.ctx, d.ready
	d.mu.Unlock()

	select {
	case <-ready:
		return c, nil
	case <-ctx.Done():
		return zero, fmt.Errorf("output not ready: %w", ctx.Err())
	}
}
