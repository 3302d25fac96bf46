package decon

import (
	"fmt"
	"math/bits"
)

// WBType is the kind of writeback a commit requests.
type WBType int

const (
	WBNone    WBType = iota
	WBCapture        // concurrent writeback alongside a panel output
	WBSingle         // writeback is the only output
)

// CrtcState is the requested state of a pipeline for one commit.
type CrtcState struct {
	// ModeChanged requests Enable to apply Mode.
	ModeChanged bool
	Mode        *Mode

	// PlaneMask has a bit set for every plane of the commit.
	PlaneMask uint32

	Writeback WBType
	// WBJob reports whether a writeback buffer is attached to the commit.
	WBJob bool

	// NoVblank suppresses the per commit event, set by AtomicCheck.
	NoVblank bool
}

// AtomicCheck validates st and fills in its derived fields. It never touches
// the hardware.
func (d *Device) AtomicCheck(st *CrtcState) error {
	if st.Writeback == WBSingle || d.cfg.OutType == OutWB {
		st.NoVblank = true
	}
	if st.PlaneMask>>len(d.planes) != 0 {
		return fmt.Errorf("%w: plane mask 0x%x", ErrInvalidConfig, st.PlaneMask)
	}
	if n := bits.OnesCount32(st.PlaneMask); n > d.cfg.MaxWindows {
		return fmt.Errorf("%w: %d planes on %d windows", ErrInvalidConfig, n, d.cfg.MaxWindows)
	}

	if st.ModeChanged && st.Mode != nil {
		if err := st.Mode.validate(); err != nil {
			return err
		}
		if !st.Mode.Video && d.cfg.TrigMode == HWTrigger && d.te == nil {
			return fmt.Errorf("%w: command mode needs a TE line", ErrInvalidConfig)
		}
	}
	return nil
}

func (d *Device) unblockHibernation() {
	if d.hibernation != nil {
		d.hibernation.Unblock()
	}
}

// AtomicBegin starts a commit. It wakes a hibernating pipeline and waits
// until the hardware adopted the previous commit. If that takes longer than
// the shadow update timeout, the error is logged and the commit proceeds.
func (d *Device) AtomicBegin(st *CrtcState) error {
	if d.hibernation != nil {
		d.hibernation.Block()
	}

	d.op.Lock()
	defer d.op.Unlock()

	if err := d.faultErr(); err != nil {
		d.unblockHibernation()
		return err
	}
	d.exitHibernation()
	if d.State() != StateOn {
		d.unblockHibernation()
		return ErrNotOn
	}

	// A begin without flush keeps its block.
	if d.committing {
		d.unblockHibernation()
	}
	d.committing = true
	d.bound = 0
	d.numPlanes = bits.OnesCount32(st.PlaneMask)
	d.waitShadowUpdate()

	if d.cfg.hwTE() {
		d.regs.setTriggerMask(true)
	}
	return nil
}

func (d *Device) waitShadowUpdate() {
	if !d.pending {
		return
	}
	d.pending = false
	if d.framestart.Wait(d.cfg.ShadowUpdateTimeout) {
		return
	}
	n := d.timeouts.Add(1)
	d.log().Error("shadow update timeout", "timeout", d.cfg.ShadowUpdateTimeout, "count", n,
		"shadow", hex(d.regs.Read(regShadowUpdate)))
}

// UpdatePlane binds a visible plane to the window of its zpos. Each window
// is bound at most once per commit. Invisible or detached planes go through
// DisablePlane instead.
func (d *Device) UpdatePlane(ps *PlaneState) error {
	d.op.Lock()
	defer d.op.Unlock()

	if d.State() != StateOn {
		return ErrNotOn
	}
	s, err := d.slot(ps.Index)
	if err != nil {
		return err
	}
	if ps.Zpos < 0 || ps.Zpos >= d.cfg.MaxWindows {
		return fmt.Errorf("%w: zpos %d", ErrInvalidConfig, ps.Zpos)
	}
	if !ps.Visible || !ps.Attached {
		return fmt.Errorf("%w: plane %d not visible", ErrInvalidConfig, ps.Index)
	}
	if err := checkCrtc(ps.Crtc); err != nil {
		return fmt.Errorf("%w: plane %d", err, ps.Index)
	}
	if d.bound&(1<<ps.Zpos) != 0 {
		return fmt.Errorf("%w: window %d bound twice", ErrInvalidConfig, ps.Zpos)
	}
	d.bound |= 1 << ps.Zpos
	return d.updatePlane(s, ps)
}

// DisablePlane releases the window a plane was bound to, unless the window
// is reused in the current commit.
func (d *Device) DisablePlane(ps *PlaneState) error {
	d.op.Lock()
	defer d.op.Unlock()

	if d.State() != StateOn {
		return ErrNotOn
	}
	s, err := d.slot(ps.Index)
	if err != nil {
		return err
	}
	d.disablePlane(s, ps)
	return nil
}

// AtomicFlush hands the staged commit to the hardware. All windows and the
// global registers are adopted at the next frame start.
func (d *Device) AtomicFlush(old, st *CrtcState) error {
	d.op.Lock()
	defer d.op.Unlock()

	if d.committing {
		d.committing = false
		defer d.unblockHibernation()
	}

	if err := d.faultErr(); err != nil {
		return err
	}
	if d.State() != StateOn {
		return ErrNotOn
	}
	if d.cfg.OutType == OutWB && !st.WBJob {
		d.log().Debug("no writeback job")
		return nil
	}
	if old == nil {
		old = &CrtcState{}
	}

	switch {
	case old.Writeback != WBCapture && st.Writeback == WBCapture:
		d.regs.setCWB(true)
	case old.Writeback == WBCapture && st.Writeback != WBCapture:
		d.regs.setCWB(false)
	}

	if st.PlaneMask == 0 {
		d.setColorMap(0, d.cfg.ImageWidth, d.cfg.ImageHeight)
	}

	d.framestart.Reinit()
	d.pending = true
	d.regs.allWinShadowUpdateReq()
	d.regs.start(&d.cfg)

	if !st.NoVblank {
		d.sink.HandleEvent(d.cfg.ID)
	}
	return nil
}
