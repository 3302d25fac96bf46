package decon

import (
	"fmt"
	"io"
	"time"

	"github.com/clktmr/exynos/dpu"
)

// MaxWindows is the number of hardware windows of a pipeline.
const MaxWindows = 6

// Register map of the DECON block.
const (
	regGlobalCon    = 0x0000
	regTrigCon      = 0x0010
	regOutputSize   = 0x0020
	regOutCon       = 0x0024
	regDSCCon       = 0x0030
	regWBCon        = 0x0040
	regIntEn        = 0x0050
	regExtraIntEn   = 0x0054
	regIntPend      = 0x0058 // write 1 to clear
	regExtraIntPend = 0x005c // write 1 to clear
	regShadowUpdate = 0x0060 // bits clear when the hardware adopted the shadow registers

	regWinBase   = 0x1000
	regWinStride = 0x20

	// RegsSize is the size of the register window in bytes.
	RegsSize = regWinBase + MaxWindows*regWinStride
)

// Per window registers, relative to regWin(n).
const (
	winCon       = 0x00
	winChannel   = 0x04
	winStartPos  = 0x08
	winEndPos    = 0x0c
	winColorMap  = 0x10
	winStartTime = 0x14
)

func regWin(n int) uint32 { return regWinBase + uint32(n)*regWinStride }

type globalCon uint32

const (
	globalConEn         globalCon = 1 << 0 // enable
	globalConEnF        globalCon = 1 << 1 // per frame enable
	globalConRunStatus  globalCon = 1 << 2 // read only
	globalConIdleStatus globalCon = 1 << 3 // read only
	globalConOpCommand  globalCon = 1 << 8
)

type trigCon uint32

const (
	trigHWEn        trigCon = 1 << 0
	trigMask        trigCon = 1 << 4 // hw trigger masked
	trigSW          trigCon = 1 << 8 // self clearing
	trigTEFromShift         = 12
	trigTEFromMask  trigCon = 0x3 << trigTEFromShift
)

const (
	outConBpc10       = 1 << 0
	outConDSIModeShft = 4
	outConOutTypeShft = 8
)

const (
	dscConEn          = 1 << 0
	dscConCountShift  = 4
	dscConSliceShift  = 8
	dscConHeightShift = 16
)

const wbConCWB = 1 << 0

// InterruptFlag is a pending or enable bit of the interrupt registers.
type InterruptFlag uint32

// regIntEn and regIntPend
const (
	IntEnable     InterruptFlag = 1 << 0 // global enable, regIntEn only
	IntFrameStart InterruptFlag = 1 << 1
	IntFrameDone  InterruptFlag = 1 << 2
	IntExtra      InterruptFlag = 1 << 3
)

// regExtraIntEn and regExtraIntPend
const (
	IntResourceConflict InterruptFlag = 1 << 3
	IntTimeout          InterruptFlag = 1 << 4
)

const shadowUpdateGlobal = 1 << 16

func shadowUpdateWin(n int) uint32 { return 1 << n }

type winConFlag uint32

const (
	winConEn         winConFlag = 1 << 0
	winConColorMapEn winConFlag = 1 << 1
	winConBlendShift            = 4
	winConBlendMask  winConFlag = 0x3 << winConBlendShift
	winConAlphaShift            = 16
	winConAlphaMask  winConFlag = 0xff << winConAlphaShift
)

// Window positions are 14 bit, X in the low and Y in the high half.
const (
	posMask   = 0x3fff
	posYShift = 16
)

// registers implements the register level operations of the DECON block.
type registers struct {
	*dpu.Bank
}

func (r registers) init(cfg *Config) {
	con := uint32(0)
	if cfg.OpMode == CommandMode {
		con |= uint32(globalConOpCommand)
	}
	r.Write(regGlobalCon, con)

	trig := uint32(cfg.TEFrom) << trigTEFromShift & uint32(trigTEFromMask)
	if cfg.TrigMode == HWTrigger {
		trig |= uint32(trigHWEn | trigMask)
	}
	r.Write(regTrigCon, trig)

	r.Write(regOutputSize, uint32(cfg.ImageHeight&posMask)<<posYShift|uint32(cfg.ImageWidth&posMask))

	out := uint32(cfg.DSIMode)<<outConDSIModeShft | uint32(cfg.OutType)<<outConOutTypeShft
	if cfg.Bpc == 10 {
		out |= outConBpc10
	}
	r.Write(regOutCon, out)

	dsc := uint32(0)
	if cfg.DSC.Enabled {
		dsc = dscConEn | uint32(cfg.DSC.Count)<<dscConCountShift |
			uint32(cfg.DSC.SliceCount)<<dscConSliceShift |
			uint32(cfg.DSC.SliceHeight)<<dscConHeightShift
	}
	r.Write(regDSCCon, dsc)

	for i := range MaxWindows {
		r.Write(regWin(i)+winCon, 0)
	}
	r.Write(regIntPend, ^uint32(0))
	r.Write(regExtraIntPend, ^uint32(0))
}

// start makes the hardware output the next frame with the current shadow
// registers.
func (r registers) start(cfg *Config) {
	r.WriteMask(regGlobalCon, uint32(globalConEn|globalConEnF), uint32(globalConEn|globalConEnF))
	if cfg.OpMode != CommandMode {
		return
	}
	if cfg.TrigMode == SWTrigger {
		r.WriteMask(regTrigCon, uint32(trigSW), uint32(trigSW))
	} else {
		r.setTriggerMask(false)
	}
}

// stop disables per frame output and waits for the current frame to finish.
// All windows are disabled afterwards.
func (r registers) stop(cfg *Config, timeout time.Duration) error {
	if cfg.hwTE() {
		r.setTriggerMask(true)
	}
	r.WriteMask(regGlobalCon, 0, uint32(globalConEnF))
	r.Write(regShadowUpdate, shadowUpdateGlobal)
	err := r.Poll(regGlobalCon, uint32(globalConRunStatus), 0, timeout)

	for i := range MaxWindows {
		r.setWinEnable(i, false)
	}
	r.WriteMask(regGlobalCon, 0, uint32(globalConEn))
	return err
}

func (r registers) setTriggerMask(mask bool) {
	v := uint32(0)
	if mask {
		v = uint32(trigMask)
	}
	r.WriteMask(regTrigCon, v, uint32(trigMask))
}

func (r registers) setInterrupts(en bool) {
	if !en {
		r.Write(regIntEn, 0)
		r.Write(regExtraIntEn, 0)
		return
	}
	r.Write(regIntPend, ^uint32(0))
	r.Write(regExtraIntPend, ^uint32(0))
	r.Write(regExtraIntEn, uint32(IntResourceConflict|IntTimeout))
	r.Write(regIntEn, uint32(IntEnable|IntFrameStart|IntFrameDone|IntExtra))
}

// interruptsAndClear returns and acknowledges the pending interrupts.
func (r registers) interruptsAndClear() (pend, ext InterruptFlag) {
	pend = InterruptFlag(r.Read(regIntPend))
	if pend&IntExtra != 0 {
		ext = InterruptFlag(r.Read(regExtraIntPend))
		r.Write(regExtraIntPend, uint32(ext))
	}
	r.Write(regIntPend, uint32(pend))
	return
}

func (r registers) setWinEnable(win int, en bool) {
	v := uint32(0)
	if en {
		v = uint32(winConEn)
	}
	r.WriteMask(regWin(win)+winCon, v, uint32(winConEn))
}

func (r registers) setWindowControl(win int, w *windowRegs, colormap bool) {
	base := regWin(win)
	r.WriteRelaxed(base+winStartPos, w.startPos)
	r.WriteRelaxed(base+winEndPos, w.endPos)
	r.WriteRelaxed(base+winStartTime, w.startTime)
	r.WriteRelaxed(base+winColorMap, w.colormap)
	r.WriteRelaxed(base+winChannel, uint32(w.channel))

	con := winConEn |
		winConFlag(w.blend)<<winConBlendShift&winConBlendMask |
		winConFlag(w.alpha)<<winConAlphaShift
	if colormap {
		con |= winConColorMapEn
	}
	r.Write(base+winCon, uint32(con))
}

func (r registers) updateReqWindow(win int) {
	r.WriteMask(regShadowUpdate, shadowUpdateWin(win), shadowUpdateWin(win))
}

// allWinShadowUpdateReq requests the adoption of all window and global shadow
// registers with a single write.
func (r registers) allWinShadowUpdateReq() {
	mask := uint32(shadowUpdateGlobal)
	for i := range MaxWindows {
		mask |= shadowUpdateWin(i)
	}
	r.WriteMask(regShadowUpdate, mask, mask)
}

func (r registers) setCWB(en bool) {
	v := uint32(0)
	if en {
		v = wbConCWB
	}
	r.WriteMask(regWBCon, v, wbConCWB)
}

func (r registers) windowEnabled(win int) bool {
	return r.ReadMask(regWin(win)+winCon, uint32(winConEn)) != 0
}

func (r registers) dump(w io.Writer, dsc bool) {
	fmt.Fprintf(w, "=== %s%d SFR DUMP ===\n", r.Name, r.ID)
	r.Dump(w, regGlobalCon, (regShadowUpdate-regGlobalCon)/4+1)
	if dsc {
		fmt.Fprintf(w, "=== %s%d DSC SFR DUMP ===\n", r.Name, r.ID)
		r.Dump(w, regDSCCon, 1)
	}
	fmt.Fprintf(w, "=== %s%d WINDOW SFR DUMP ===\n", r.Name, r.ID)
	r.Dump(w, regWinBase, MaxWindows*regWinStride/4)
}
