package dpu

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DevMem is a Mem backed by physical memory mapped through /dev/mem.
type DevMem struct {
	f     *os.File
	data  []byte // page aligned mapping
	delta int    // offset of the register window inside data
	size  int
}

// OpenDevMem maps size bytes of physical address space starting at phys.
// The mapping is uncached since /dev/mem is opened with O_SYNC.
func OpenDevMem(phys int64, size int) (*DevMem, error) {
	f, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}

	pageSize := int64(os.Getpagesize())
	base := phys &^ (pageSize - 1)
	delta := int(phys - base)

	data, err := unix.Mmap(int(f.Fd()), base, delta+size,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap 0x%x+0x%x: %w", phys, size, err)
	}

	return &DevMem{f: f, data: data, delta: delta, size: size}, nil
}

func (m *DevMem) word(off uint32) *uint32 {
	return (*uint32)(unsafe.Pointer(&m.data[m.delta+int(off)]))
}

func (m *DevMem) Load(off uint32) uint32     { return atomic.LoadUint32(m.word(off)) }
func (m *DevMem) Store(off uint32, v uint32) { atomic.StoreUint32(m.word(off), v) }
func (m *DevMem) Len() int                   { return m.size }

func (m *DevMem) Close() error {
	err := unix.Munmap(m.data)
	if cerr := m.f.Close(); err == nil {
		err = cerr
	}
	return err
}
