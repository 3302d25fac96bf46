package dpu

import (
	"time"
)

// Completion is a single slot signal passed from an interrupt handler to a
// waiting caller. Completing an already completed signal has no effect, so at
// most one completion is ever pending.
//
// Callers must Reinit before they trigger the event they are going to wait
// for, otherwise a completion left over from an earlier event satisfies the
// wait.
type Completion struct {
	ch chan struct{}
}

func NewCompletion() *Completion {
	return &Completion{ch: make(chan struct{}, 1)}
}

// Complete is safe to call from interrupt handlers, it never blocks.
func (c *Completion) Complete() {
	select {
	case c.ch <- struct{}{}:
	default:
	}
}

// Reinit discards a pending completion.
func (c *Completion) Reinit() {
	select {
	case <-c.ch:
	default:
	}
}

// Wait consumes the completion. It returns false if nothing completed within
// timeout.
func (c *Completion) Wait(timeout time.Duration) bool {
	select {
	case <-c.ch:
		return true
	default:
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-c.ch:
		return true
	case <-t.C:
		return false
	}
}

// Done reports whether a completion is pending without consuming it.
func (c *Completion) Done() bool {
	return len(c.ch) != 0
}
