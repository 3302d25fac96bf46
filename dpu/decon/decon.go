// Package decon drives the display and enhancement controller, the engine
// that blends the windows fed by the DPP channels and sends the result to
// the output interface.
//
// A Device is driven by a compositor through the CrtcOps interface. Frame
// synchronization happens through interrupts, which the platform glue
// forwards to HandleIRQ and HandleTE.
package decon

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/clktmr/exynos/dpu"
)

var (
	ErrNotOn         = errors.New("decon: pipeline not enabled")
	ErrHardwareFault = errors.New("decon: hardware fault")
)

// State is the lifecycle state of a pipeline.
type State int32

const (
	StateOff State = iota
	StateOn
	StateHibernation
)

func (s State) String() string {
	switch s {
	case StateOff:
		return "off"
	case StateOn:
		return "on"
	case StateHibernation:
		return "hibernation"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// CrtcOps are the operations a compositor calls on a pipeline.
type CrtcOps interface {
	Enable(ctx context.Context, st *CrtcState) error
	Disable(ctx context.Context) error
	AtomicCheck(st *CrtcState) error
	AtomicBegin(st *CrtcState) error
	UpdatePlane(ps *PlaneState) error
	DisablePlane(ps *PlaneState) error
	AtomicFlush(old, st *CrtcState) error
}

var _ CrtcOps = (*Device)(nil)

// PowerDomain switches the clocks and power of the pipeline.
type PowerDomain interface {
	Get(ctx context.Context) error
	Put() error
}

// TEControl routes the tearing effect signal of a command mode panel to the
// pipeline.
type TEControl interface {
	SetTE(on bool) error
}

// EventSink receives the notifications of a pipeline. Methods are called
// from interrupt handlers and must not call back into the Device.
type EventSink interface {
	// HandleEvent signals that a commit was handed to the hardware.
	HandleEvent(id int)
	// HandleVblank signals a tearing effect edge in command mode.
	HandleVblank(id int)
	// Fault reports an unrecoverable hardware desync together with a dump
	// of all pipelines.
	Fault(id int, err error, dump []byte)
}

type nopPower struct{}

func (nopPower) Get(context.Context) error { return nil }
func (nopPower) Put() error                { return nil }

type nopSink struct{}

func (nopSink) HandleEvent(int)          {}
func (nopSink) HandleVblank(int)         {}
func (nopSink) Fault(int, error, []byte) {}

// Options holds the collaborators of a Device. All of them are optional.
type Options struct {
	Power    PowerDomain
	TE       TEControl
	Sink     EventSink
	Planes   []Plane // in DPP channel order
	Registry *Registry
}

// Device is one pipeline instance.
type Device struct {
	cfg      Config
	regs     registers
	power    PowerDomain
	te       TEControl
	sink     EventSink
	registry *Registry
	planes   []*planeSlot
	fallback color.RGBA

	// op serializes lifecycle transitions and commits.
	op sync.Mutex

	// slock is shared with the interrupt handlers. It protects state
	// transitions and fault.
	slock sync.Mutex
	state atomic.Int32
	fault error

	framestart *dpu.Completion
	pending    bool   // a shadow update awaits its frame start, guarded by op
	numPlanes  int    // planes of the commit in progress, guarded by op
	bound      uint32 // windows bound in the commit in progress, guarded by op
	committing bool   // AtomicBegin succeeded and holds a hibernation block
	timeouts   atomic.Int64

	hibernation *Hibernation
}

// New returns a pipeline in state off. The register bank must cover RegsSize
// bytes.
func New(cfg Config, regs *dpu.Bank, opts Options) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := regs.Check(RegsSize - 4); err != nil {
		return nil, err
	}
	if len(opts.Planes) > MaxWindows {
		return nil, fmt.Errorf("%w: %d planes", ErrInvalidConfig, len(opts.Planes))
	}
	fallback, _ := parseColor(cfg.FallbackColor)

	d := &Device{
		cfg:        cfg,
		regs:       registers{regs},
		power:      opts.Power,
		te:         opts.TE,
		sink:       opts.Sink,
		registry:   opts.Registry,
		fallback:   fallback,
		framestart: dpu.NewCompletion(),
	}
	if d.power == nil {
		d.power = nopPower{}
	}
	if d.sink == nil {
		d.sink = nopSink{}
	}
	for _, p := range opts.Planes {
		d.planes = append(d.planes, &planeSlot{plane: p, winID: noWindow})
	}
	if cfg.HibernationFrames > 0 {
		d.hibernation = newHibernation(d, cfg.HibernationFrames)
	}

	if d.registry != nil {
		if err := d.registry.Register(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Device) ID() int { return d.cfg.ID }

// Config returns the active configuration.
func (d *Device) Config() Config {
	d.slock.Lock()
	defer d.slock.Unlock()
	return d.cfg
}

func (d *Device) State() State { return State(d.state.Load()) }

// Hibernation returns the hibernation controller or nil if hibernation is
// disabled.
func (d *Device) Hibernation() *Hibernation { return d.hibernation }

// Timeouts returns how often a commit didn't observe the frame start of its
// predecessor in time.
func (d *Device) Timeouts() int64 { return d.timeouts.Load() }

func (d *Device) log() *slog.Logger {
	return dpu.Logger().With("decon", d.cfg.ID)
}

func (d *Device) setState(s State) {
	d.slock.Lock()
	d.state.Store(int32(s))
	d.slock.Unlock()
}

func (d *Device) faultErr() error {
	d.slock.Lock()
	defer d.slock.Unlock()
	return d.fault
}

func (d *Device) updateConfigForMode(m *Mode) error {
	if m == nil {
		d.log().Info("no private mode config")
		return nil
	}
	if err := m.validate(); err != nil {
		return err
	}

	cfg := d.cfg
	cfg.DSC = m.DSC
	if m.Video {
		cfg.OpMode = VideoMode
	} else {
		cfg.OpMode = CommandMode
	}
	if m.Bpc != 0 {
		cfg.Bpc = m.Bpc
	}
	if m.Width != 0 && m.Height != 0 {
		cfg.ImageWidth, cfg.ImageHeight = m.Width, m.Height
	}

	// The TE handler reads the op mode under slock.
	d.slock.Lock()
	d.cfg = cfg
	d.slock.Unlock()
	return nil
}

func (d *Device) setTE(on bool) {
	if !d.cfg.hwTE() || d.te == nil {
		return
	}
	if err := d.te.SetTE(on); err != nil {
		d.log().Error("failed to control decon TE", "on", on, "err", err)
	}
}

func (d *Device) printConfig() {
	trigger := ""
	if d.cfg.OpMode == CommandMode {
		if d.cfg.TrigMode == HWTrigger {
			trigger = "hw trigger."
		} else {
			trigger = "sw trigger."
		}
	}
	d.log().Info(fmt.Sprintf("%s mode. %s %s output.(%dx%d@%dhz)",
		d.cfg.OpMode, trigger, d.cfg.OutType,
		d.cfg.ImageWidth, d.cfg.ImageHeight, d.cfg.FPS))
}

// enableHW initializes the registers and unmasks interrupts.
func (d *Device) enableHW() {
	d.regs.init(&d.cfg)
	d.regs.setInterrupts(true)
}

// disableHW masks interrupts, stops the hardware and disables all planes.
func (d *Device) disableHW() error {
	d.regs.setInterrupts(false)
	err := d.regs.stop(&d.cfg, 20*d.cfg.frameTime())
	if err != nil {
		d.log().Error("failed to stop", "err", err)
	}

	for _, s := range d.planes {
		s.plane.Disable()
		s.connected = false
	}
	d.pending = false
	d.framestart.Reinit()
	return err
}

// Enable powers the pipeline up. The pending display mode of st is applied
// if it changed, also when waking a hibernating pipeline. Enabling an
// enabled pipeline does nothing.
func (d *Device) Enable(ctx context.Context, st *CrtcState) error {
	d.op.Lock()
	defer d.op.Unlock()

	switch s := d.State(); s {
	case StateOn:
		d.log().Info("already enabled", "state", s)
		return nil
	case StateHibernation:
		if st != nil && st.ModeChanged {
			d.setTE(false)
			if err := d.updateConfigForMode(st.Mode); err != nil {
				return err
			}
			d.setTE(true)
		}
		d.exitHibernation()
		return nil
	}
	d.log().Info("enable +")

	if st != nil && st.ModeChanged {
		if err := d.updateConfigForMode(st.Mode); err != nil {
			return err
		}
	}

	if err := d.power.Get(ctx); err != nil {
		return fmt.Errorf("decon%d: power on: %w", d.cfg.ID, err)
	}
	d.setTE(true)

	d.enableHW()
	d.setState(StateOn)

	if d.cfg.OpMode == CommandMode && d.cfg.OutType&OutDSI != 0 {
		d.setColorMap(0, d.cfg.ImageWidth, d.cfg.ImageHeight)
		d.framestart.Reinit()
		d.pending = true
		d.regs.start(&d.cfg)
	}

	d.printConfig()

	for _, s := range d.planes {
		s.winID = noWindow
	}

	d.log().Info("enable -")
	return nil
}

// Disable stops the pipeline and releases its power. Disabling a disabled
// pipeline does nothing. The pipeline is off afterwards even if an error is
// returned.
func (d *Device) Disable(ctx context.Context) error {
	d.op.Lock()
	defer d.op.Unlock()

	if d.State() == StateOff {
		return nil
	}
	d.log().Info("disable +")

	var errs []error
	if d.State() == StateOn {
		errs = append(errs, d.disableHW())
	}
	d.setTE(false)
	if err := d.power.Put(); err != nil {
		errs = append(errs, fmt.Errorf("decon%d: power off: %w", d.cfg.ID, err))
	}
	d.setState(StateOff)

	d.log().Info("disable -")
	return errors.Join(errs...)
}

// EnterHibernation stops the pipeline but keeps its power and clocks. It
// does nothing unless the pipeline is on.
func (d *Device) EnterHibernation() error {
	d.op.Lock()
	defer d.op.Unlock()
	return d.enterHibernation()
}

func (d *Device) enterHibernation() error {
	if d.State() != StateOn {
		return nil
	}
	d.log().Debug("enter hibernation +")
	err := d.disableHW()
	d.setState(StateHibernation)
	d.log().Debug("enter hibernation -")
	return err
}

// ExitHibernation restarts a hibernating pipeline. It does nothing unless the
// pipeline hibernates.
func (d *Device) ExitHibernation() {
	d.op.Lock()
	defer d.op.Unlock()
	d.exitHibernation()
}

func (d *Device) exitHibernation() {
	if d.State() != StateHibernation {
		return
	}
	d.log().Debug("exit hibernation +")
	d.enableHW()
	for _, s := range d.planes {
		s.winID = noWindow
	}
	d.setState(StateOn)
	d.log().Debug("exit hibernation -")
}

// WindowEnabled reports whether hardware window win is enabled.
func (d *Device) WindowEnabled(win int) bool {
	return d.regs.windowEnabled(win)
}

// Dump writes the registers of the pipeline and its planes to w.
func (d *Device) Dump(w io.Writer) {
	if s := d.State(); s != StateOn {
		fmt.Fprintf(w, "DECON%d disabled(%s)\n", d.cfg.ID, s)
		return
	}
	d.regs.dump(w, d.cfg.DSC.Enabled)
}

func (d *Device) dumpPlanes(w io.Writer) {
	for _, s := range d.planes {
		if dp, ok := s.plane.(Dumper); ok {
			dp.Dump(w)
		}
	}
}
