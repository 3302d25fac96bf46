package decon

import (
	"context"
	"sync/atomic"

	"github.com/clktmr/exynos/debug"
)

// Hibernation stops an idle command mode pipeline after a number of tearing
// effect edges without a commit. The pipeline keeps its power and wakes up
// on the next AtomicBegin.
type Hibernation struct {
	d      *Device
	frames int32

	block atomic.Int32
	idle  atomic.Int32 // TE edges since the last commit
	kick  chan struct{}
}

func newHibernation(d *Device, frames int) *Hibernation {
	return &Hibernation{
		d:      d,
		frames: int32(frames),
		kick:   make(chan struct{}, 1),
	}
}

// Block prevents entering hibernation until the matching Unblock.
func (h *Hibernation) Block() {
	h.block.Add(1)
	h.idle.Store(0)
}

func (h *Hibernation) Unblock() {
	n := h.block.Add(-1)
	debug.Assert(n >= 0, "hibernation: unbalanced Unblock")
}

func (h *Hibernation) Blocked() bool {
	return h.block.Load() > 0
}

// frame counts an idle frame and schedules the worker once enough frames
// passed. Called from the TE handler, never blocks.
func (h *Hibernation) frame() {
	if h.Blocked() {
		return
	}
	if h.idle.Add(1) < h.frames {
		return
	}
	select {
	case h.kick <- struct{}{}:
	default:
	}
}

// Run is the hibernation worker. It returns when ctx is done.
func (h *Hibernation) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.kick:
		}
		h.enter()
	}
}

func (h *Hibernation) enter() {
	d := h.d
	d.op.Lock()
	defer d.op.Unlock()

	if h.Blocked() || h.idle.Load() < h.frames {
		return
	}
	h.idle.Store(0)
	if err := d.enterHibernation(); err != nil {
		d.log().Error("failed to enter hibernation", "err", err)
	}
}
