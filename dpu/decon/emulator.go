package decon

import (
	"context"
	"sync"
	"time"

	"github.com/clktmr/exynos/dpu"
)

// Emulator is a dpu.Mem modelling the DECON register block. It implements
// the shadow register adoption, frame triggering and interrupt pending
// registers, which is enough to drive a Device without hardware.
//
// The emulated hardware advances one frame per Tick.
type Emulator struct {
	mu        sync.Mutex
	mem       *dpu.Memory
	running   bool
	swTrigger bool
	frames    int

	// IRQ is called after a frame started with interrupts enabled.
	IRQ func()
	// TE is called at the beginning of each Tick.
	TE func()
}

func NewEmulator() *Emulator {
	return &Emulator{mem: dpu.NewMemory(RegsSize)}
}

func (e *Emulator) Len() int { return e.mem.Len() }

func (e *Emulator) Load(off uint32) uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := e.mem.Load(off)
	if off == regGlobalCon && e.running {
		v |= uint32(globalConRunStatus)
	}
	return v
}

func (e *Emulator) Store(off uint32, v uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch off {
	case regGlobalCon:
		v &^= uint32(globalConRunStatus | globalConIdleStatus)
	case regTrigCon:
		if v&uint32(trigSW) != 0 {
			e.swTrigger = true
			v &^= uint32(trigSW)
		}
	case regIntPend, regExtraIntPend:
		v = e.mem.Load(off) &^ v
	}
	e.mem.Store(off, v)
}

// Frames returns the number of frames started so far.
func (e *Emulator) Frames() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

// Tick advances the hardware by one frame. The frame in flight finishes and
// a new frame starts if the block is enabled and, in command mode, was
// triggered. A started frame adopts all requested shadow registers. Tick
// reports whether a frame started.
func (e *Emulator) Tick() bool {
	if e.TE != nil {
		e.TE()
	}

	e.mu.Lock()
	con := globalCon(e.mem.Load(regGlobalCon))
	trig := trigCon(e.mem.Load(regTrigCon))

	start := con&(globalConEn|globalConEnF) == globalConEn|globalConEnF
	if start && con&globalConOpCommand != 0 {
		start = e.swTrigger || (trig&trigHWEn != 0 && trig&trigMask == 0)
	}
	e.swTrigger = false
	e.running = start
	if !start {
		e.mu.Unlock()
		return false
	}

	e.frames++
	e.mem.Store(regShadowUpdate, 0)
	e.mem.Store(regIntPend, e.mem.Load(regIntPend)|uint32(IntFrameStart|IntFrameDone))
	raise := InterruptFlag(e.mem.Load(regIntEn))&IntEnable != 0
	e.mu.Unlock()

	if raise && e.IRQ != nil {
		e.IRQ()
	}
	return true
}

// RaiseTimeout signals a timeout error interrupt.
func (e *Emulator) RaiseTimeout() {
	e.mu.Lock()
	e.mem.Store(regExtraIntPend, e.mem.Load(regExtraIntPend)|uint32(IntTimeout))
	e.mem.Store(regIntPend, e.mem.Load(regIntPend)|uint32(IntExtra))
	raise := InterruptFlag(e.mem.Load(regIntEn))&IntEnable != 0
	e.mu.Unlock()

	if raise && e.IRQ != nil {
		e.IRQ()
	}
}

// Run calls Tick every period until ctx is done.
func (e *Emulator) Run(ctx context.Context, period time.Duration) error {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			e.Tick()
		}
	}
}
