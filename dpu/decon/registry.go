package decon

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Registry maps pipeline ids to their devices. It is used for diagnostics
// that span all pipelines.
type Registry struct {
	mu   sync.Mutex
	devs map[int]*Device
}

func NewRegistry() *Registry {
	return &Registry{devs: make(map[int]*Device)}
}

// Register adds d. Ids must be unique.
func (r *Registry) Register(d *Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devs[d.ID()]; ok {
		return fmt.Errorf("%w: decon%d registered twice", ErrInvalidConfig, d.ID())
	}
	r.devs[d.ID()] = d
	return nil
}

func (r *Registry) Lookup(id int) (*Device, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devs[id]
	return d, ok
}

// Devices returns all registered devices ordered by id.
func (r *Registry) Devices() []*Device {
	r.mu.Lock()
	devs := make([]*Device, 0, len(r.devs))
	for _, d := range r.devs {
		devs = append(devs, d)
	}
	r.mu.Unlock()

	slices.SortFunc(devs, func(a, b *Device) int { return a.ID() - b.ID() })
	return devs
}

// DumpAll writes the registers of every pipeline and its planes to w.
func (r *Registry) DumpAll(w io.Writer) {
	for _, d := range r.Devices() {
		d.Dump(w)
		d.dumpPlanes(w)
	}
}

// DisableAll disables all pipelines concurrently.
func (r *Registry) DisableAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, d := range r.Devices() {
		g.Go(func() error {
			return d.Disable(ctx)
		})
	}
	return g.Wait()
}
