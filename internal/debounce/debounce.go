// Package debounce collapses bursts of calls into the last one.
//
// Every call to Wait takes a ticket from a monotonically increasing sequence.
// A call proceeds only after the quiet interval has passed without a newer
// ticket being issued; it stays "current" until the next ticket is issued, so
// a slow operation started by an old call can be detected and dropped.
package debounce

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSuperseded is returned when a newer call replaced this one.
var ErrSuperseded = errors.New("debounce: superseded by a newer call")

// Debouncer lets the last call of a burst through once the burst has been
// quiet for the configured interval.
type Debouncer struct {
	quiet time.Duration

	mu      sync.Mutex
	seq     uint64
	pending context.CancelFunc
}

// New creates a debouncer with the given quiet interval.
func New(quiet time.Duration) *Debouncer {
	return &Debouncer{quiet: quiet}
}

// Call is a call that survived the quiet interval. Ctx is cancelled as soon as
// a newer call is issued.
type Call struct {
	Ctx    context.Context
	ticket uint64
	d      *Debouncer
	cancel context.CancelFunc
}

// Wait blocks for the quiet interval. It returns ErrSuperseded if a newer call
// arrived first, or the context's error if ctx ended first.
func (d *Debouncer) Wait(ctx context.Context) (*Call, error) {
	d.mu.Lock()
	d.seq++
	ticket := d.seq
	if d.pending != nil {
		d.pending()
	}
	callCtx, cancel := context.WithCancel(ctx)
	d.pending = cancel
	d.mu.Unlock()

	timer := time.NewTimer(d.quiet)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-callCtx.Done():
		cancel()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrSuperseded
	}

	call := &Call{Ctx: callCtx, ticket: ticket, d: d, cancel: cancel}
	if !call.Current() {
		cancel()
		return nil, ErrSuperseded
	}
	return call, nil
}

// Cancel supersedes every outstanding call without starting a new one.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if d.pending != nil {
		d.pending()
		d.pending = nil
	}
}

// Current reports whether no newer call has been issued since c.
func (c *Call) Current() bool {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	return c.d.seq == c.ticket
}

// Apply runs fn only if c is still current. fn runs under the debouncer's
// lock, so a concurrent Cancel or Wait is ordered either before or after it.
func (c *Call) Apply(fn func()) bool {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	if c.d.seq != c.ticket {
		return false
	}
	fn()
	return true
}

// Done releases the call's context.
func (c *Call) Done() {
	c.cancel()
}
