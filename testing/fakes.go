package testing

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/clktmr/exynos/dpu"
	"github.com/clktmr/exynos/dpu/decon"
)

// Access is a single register store.
type Access struct {
	Off uint32
	V   uint32
}

// RecordingMem wraps a Mem and records all stores.
type RecordingMem struct {
	dpu.Mem

	mu     sync.Mutex
	stores []Access
}

func NewRecordingMem(mem dpu.Mem) *RecordingMem {
	return &RecordingMem{Mem: mem}
}

func (m *RecordingMem) Store(off uint32, v uint32) {
	m.mu.Lock()
	m.stores = append(m.stores, Access{off, v})
	m.mu.Unlock()
	m.Mem.Store(off, v)
}

// Stores returns the recorded stores in order.
func (m *RecordingMem) Stores() []Access {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Access(nil), m.stores...)
}

// StoresTo returns the values stored to off in order.
func (m *RecordingMem) StoresTo(off uint32) (vs []uint32) {
	for _, a := range m.Stores() {
		if a.Off == off {
			vs = append(vs, a.V)
		}
	}
	return
}

func (m *RecordingMem) Reset() {
	m.mu.Lock()
	m.stores = nil
	m.mu.Unlock()
}

// FakePlane is a decon.Plane counting its updates and disables.
type FakePlane struct {
	Channel int

	mu        sync.Mutex
	Updates   int
	Disables  int
	Last      decon.PlaneState
	UpdateErr error
}

func (p *FakePlane) ID() int { return p.Channel }

func (p *FakePlane) Update(ps *decon.PlaneState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.UpdateErr != nil {
		return p.UpdateErr
	}
	p.Updates++
	p.Last = *ps
	return nil
}

func (p *FakePlane) Disable() {
	p.mu.Lock()
	p.Disables++
	p.mu.Unlock()
}

// Counts returns the number of updates and disables so far.
func (p *FakePlane) Counts() (updates, disables int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Updates, p.Disables
}

func (p *FakePlane) Dump(w io.Writer) {
	fmt.Fprintf(w, "DPP%d\n", p.Channel)
}

// NewFakePlanes returns n planes with channel ids 0 to n-1.
func NewFakePlanes(n int) ([]*FakePlane, []decon.Plane) {
	fakes := make([]*FakePlane, n)
	planes := make([]decon.Plane, n)
	for i := range n {
		fakes[i] = &FakePlane{Channel: i}
		planes[i] = fakes[i]
	}
	return fakes, planes
}

// FakePower is a reference counted decon.PowerDomain.
type FakePower struct {
	mu     sync.Mutex
	Refs   int
	GetErr error
}

func (p *FakePower) Get(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.GetErr != nil {
		return p.GetErr
	}
	p.Refs++
	return nil
}

func (p *FakePower) Put() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Refs == 0 {
		return fmt.Errorf("power: unbalanced put")
	}
	p.Refs--
	return nil
}

func (p *FakePower) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Refs
}

// FakeTE records the TE pin control state.
type FakeTE struct {
	mu sync.Mutex
	On bool
}

func (te *FakeTE) SetTE(on bool) error {
	te.mu.Lock()
	te.On = on
	te.mu.Unlock()
	return nil
}

func (te *FakeTE) Enabled() bool {
	te.mu.Lock()
	defer te.mu.Unlock()
	return te.On
}

// FakeSink counts the events of a pipeline.
type FakeSink struct {
	mu      sync.Mutex
	Events  int
	Vblanks int
	Faults  []error
	Dump    []byte
}

func (s *FakeSink) HandleEvent(id int) {
	s.mu.Lock()
	s.Events++
	s.mu.Unlock()
}

func (s *FakeSink) HandleVblank(id int) {
	s.mu.Lock()
	s.Vblanks++
	s.mu.Unlock()
}

func (s *FakeSink) Fault(id int, err error, dump []byte) {
	s.mu.Lock()
	s.Faults = append(s.Faults, err)
	s.Dump = append([]byte(nil), dump...)
	s.mu.Unlock()
}

// Counts returns the number of events, vblanks and faults so far.
func (s *FakeSink) Counts() (events, vblanks, faults int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Events, s.Vblanks, len(s.Faults)
}
