package dpu

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/clktmr/exynos/debug"
)

var (
	ErrOutOfRange = errors.New("dpu: register offset out of range")
	ErrTimeout    = errors.New("dpu: register poll timeout")
)

// Mem is a window of 32 bit registers addressed by byte offset. Offsets are
// always word aligned.
type Mem interface {
	Load(off uint32) uint32
	Store(off uint32, v uint32)
	Len() int // in bytes
}

// Memory is a Mem backed by ordinary memory. It is used to emulate hardware
// and to inspect register snapshots. All accesses are atomic, so an emulator
// goroutine may modify it concurrently with a driver.
type Memory struct {
	words []atomic.Uint32
}

// NewMemory returns a zeroed register window of size bytes.
func NewMemory(size int) *Memory {
	return &Memory{words: make([]atomic.Uint32, (size+3)/4)}
}

func (m *Memory) Load(off uint32) uint32     { return m.words[off>>2].Load() }
func (m *Memory) Store(off uint32, v uint32) { m.words[off>>2].Store(v) }
func (m *Memory) Len() int                   { return len(m.words) * 4 }

// Bank gives typed, masked access to a named block of hardware registers.
type Bank struct {
	Name string
	ID   int

	mem Mem
}

func NewBank(name string, id int, mem Mem) *Bank {
	return &Bank{Name: name, ID: id, mem: mem}
}

// Mem returns the backing register window.
func (b *Bank) Mem() Mem { return b.mem }

// Check returns ErrOutOfRange if off isn't a valid register offset.
func (b *Bank) Check(off uint32) error {
	if off&0x3 != 0 || int(off)+4 > b.mem.Len() {
		return fmt.Errorf("%w: %s[%d] 0x%04x", ErrOutOfRange, b.Name, b.ID, off)
	}
	return nil
}

func (b *Bank) Read(off uint32) uint32 {
	if debug.Enabled {
		debug.AssertNil(b.Check(off))
	}
	return b.mem.Load(off)
}

func (b *Bank) ReadMask(off, mask uint32) uint32 {
	return b.Read(off) & mask
}

// Write stores v and reads the register back, which flushes the write out of
// any posting buffer before the next access is issued.
func (b *Bank) Write(off, v uint32) {
	b.WriteRelaxed(off, v)
	b.mem.Load(off)
}

// WriteRelaxed stores v without waiting for it to reach the device. Ordering
// against the next access isn't guaranteed.
func (b *Bank) WriteRelaxed(off, v uint32) {
	if debug.Enabled {
		debug.AssertNil(b.Check(off))
	}
	b.mem.Store(off, v)
}

// WriteMask updates the bits selected by mask to the corresponding bits of v
// and leaves all other bits untouched.
func (b *Bank) WriteMask(off, v, mask uint32) {
	old := b.Read(off)
	b.Write(off, (v&mask)|(old&^mask))
}

// Poll waits until the bits selected by mask equal want. It returns
// ErrTimeout if that doesn't happen within timeout.
func (b *Bank) Poll(off, mask, want uint32, timeout time.Duration) error {
	start := time.Now()
	for b.ReadMask(off, mask) != want {
		if time.Since(start) > timeout {
			return fmt.Errorf("%w: %s[%d] 0x%04x&0x%08x != 0x%08x",
				ErrTimeout, b.Name, b.ID, off, mask, want)
		}
		runtime.Gosched()
		time.Sleep(pollInterval)
	}
	return nil
}

const pollInterval = 20 * time.Microsecond

// Dump writes count registers starting at offset start as a hex dump with
// four registers per line.
func (b *Bank) Dump(w io.Writer, start uint32, count int) {
	for i := 0; i < count; i += 4 {
		off := start + uint32(i)*4
		fmt.Fprintf(w, "%s[%d] %04x:", b.Name, b.ID, off)
		for j := i; j < min(i+4, count); j++ {
			fmt.Fprintf(w, " %08x", b.mem.Load(start+uint32(j)*4))
		}
		fmt.Fprintln(w)
	}
}
