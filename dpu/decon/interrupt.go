package decon

import (
	"bytes"
	"log/slog"
	"strconv"

	"github.com/clktmr/exynos/debug"
)

// HandleIRQ demultiplexes the interrupt of the DECON block. It must be called
// once per interrupt, never concurrently with itself.
func (d *Device) HandleIRQ() {
	d.slock.Lock()
	defer d.slock.Unlock()

	if State(d.state.Load()) != StateOn {
		return
	}

	pend, ext := d.regs.interruptsAndClear()

	if pend&IntFrameStart != 0 {
		d.framestart.Complete()
	}
	if pend&IntFrameDone != 0 {
		d.log().Debug("frame done")
	}
	if ext&IntResourceConflict != 0 {
		d.log().Warn("resource conflict", "pend", hex(ext))
	}
	if ext&IntTimeout != 0 {
		d.hardwareFault(ext)
	}
}

// hardwareFault latches ErrHardwareFault and reports the state of all
// pipelines. The hardware is in an unknown state afterwards, commits are
// refused until the process restarts.
func (d *Device) hardwareFault(ext InterruptFlag) {
	d.log().Error("decon timeout interrupt", "pend", hex(ext))

	var buf bytes.Buffer
	if d.registry != nil {
		d.registry.DumpAll(&buf)
	} else {
		d.Dump(&buf)
		d.dumpPlanes(&buf)
	}

	if d.fault == nil {
		d.fault = ErrHardwareFault
	}
	d.sink.Fault(d.cfg.ID, ErrHardwareFault, buf.Bytes())
	debug.Fault("decon%d: timeout interrupt 0x%x", d.cfg.ID, uint32(ext))
}

// HandleTE handles a tearing effect edge of a command mode panel.
func (d *Device) HandleTE() {
	d.slock.Lock()
	on := State(d.state.Load()) == StateOn
	mode := d.cfg.OpMode
	d.slock.Unlock()
	if !on {
		return
	}

	if mode == CommandMode {
		d.sink.HandleVblank(d.cfg.ID)
	}
	if d.hibernation != nil {
		d.hibernation.frame()
	}
}

type hex uint32

func (v hex) LogValue() slog.Value {
	return slog.StringValue("0x" + strconv.FormatUint(uint64(v), 16))
}
