package decon

import (
	"fmt"
	"image"
	"image/color"
	"io"
)

// BlendMode is the per pixel blend mode of a plane.
type BlendMode uint32

const (
	BlendPremulti BlendMode = iota
	BlendCoverage
	BlendNone
)

func (m BlendMode) String() string {
	switch m {
	case BlendPremulti:
		return "premulti"
	case BlendCoverage:
		return "coverage"
	case BlendNone:
		return "none"
	}
	return fmt.Sprintf("BlendMode(%d)", uint32(m))
}

const (
	// AlphaOpaque is the plane alpha of a fully opaque plane.
	AlphaOpaque = 0xffff

	// PlaneAlphaMax is the fully opaque plane alpha of the hardware.
	PlaneAlphaMax = 0xff
)

// Plane is a DPP channel. It fetches a surface from memory and feeds the
// window its plane is bound to.
type Plane interface {
	ID() int
	Update(ps *PlaneState) error
	Disable()
}

// Dumper is implemented by planes that can dump their registers.
type Dumper interface {
	Dump(w io.Writer)
}

// PlaneState is the requested state of a plane for one commit.
type PlaneState struct {
	Index int // DPP channel order, as passed in Options.Planes

	// Zpos is the normalized stacking order, 0 is the bottom-most plane.
	Zpos     int
	Visible  bool
	Attached bool // the plane is bound to this pipeline

	// Crtc is the destination rectangle on the output.
	Crtc image.Rectangle

	Alpha uint16 // AlphaOpaque is fully opaque
	Blend BlendMode

	// ColorMap, if not nil, fills the window with a solid color instead of
	// fetching a surface.
	ColorMap color.Color
}

const noWindow = 0xff

// planeSlot tracks the window a plane is connected to across commits.
type planeSlot struct {
	plane     Plane
	winID     int
	connected bool
}

type windowRegs struct {
	startPos, endPos uint32
	startTime        uint32
	colormap         uint32
	blend            BlendMode
	alpha            uint8
	channel          int
}

// checkCrtc rejects rectangles the position fields can't hold.
func checkCrtc(r image.Rectangle) error {
	if r.Empty() || r.Min.X < 0 || r.Min.Y < 0 || r.Max.X > posMask+1 || r.Max.Y > posMask+1 {
		return fmt.Errorf("%w: window %v", ErrInvalidConfig, r)
	}
	return nil
}

func windowStart(x, y int) uint32 {
	return uint32(y&posMask)<<posYShift | uint32(x&posMask)
}

func windowEnd(x, y, w, h int) uint32 {
	return windowStart(x+w-1, y+h-1)
}

// hwAlpha scales a 16 bit plane alpha to the 8 bit hardware alpha, rounding
// to the closest value.
func hwAlpha(alpha uint16) uint8 {
	return uint8((uint32(alpha)*PlaneAlphaMax + AlphaOpaque/2) / AlphaOpaque)
}

// windowForPlane computes the window registers of ps. The bottom-most fully
// opaque plane doesn't need blending.
func windowForPlane(ps *PlaneState, channel int) (w windowRegs) {
	r := ps.Crtc
	w.startPos = windowStart(r.Min.X, r.Min.Y)
	w.endPos = windowEnd(r.Min.X, r.Min.Y, r.Dx(), r.Dy())
	w.channel = channel
	w.alpha = hwAlpha(ps.Alpha)
	w.blend = ps.Blend
	if ps.Zpos == 0 && w.alpha == PlaneAlphaMax {
		w.blend = BlendNone
	}
	if ps.ColorMap != nil {
		w.colormap = colorMap(ps.ColorMap)
	}
	return
}

func (d *Device) slot(idx int) (*planeSlot, error) {
	if idx < 0 || idx >= len(d.planes) {
		return nil, fmt.Errorf("%w: plane %d", ErrInvalidConfig, idx)
	}
	return d.planes[idx], nil
}

// updatePlane binds the plane to the window of its zpos.
func (d *Device) updatePlane(s *planeSlot, ps *PlaneState) error {
	w := windowForPlane(ps, s.plane.ID())
	isColorMap := ps.ColorMap != nil

	d.regs.setWindowControl(ps.Zpos, &w, isColorMap)

	if !isColorMap {
		if err := s.plane.Update(ps); err != nil {
			return fmt.Errorf("decon%d: plane %d: %w", d.cfg.ID, ps.Index, err)
		}
		s.connected = true
	} else {
		s.plane.Disable()
		s.connected = false
	}
	s.winID = ps.Zpos

	d.log().Debug("plane update", "idx", ps.Index, "alpha", ps.Alpha, "hw_alpha", w.alpha,
		"blend", w.blend, "colormap", isColorMap, "color", hex(w.colormap))
	return nil
}

// disablePlane turns off the window the plane was connected to, unless the
// window is reused by another plane of this commit. Windows are assigned by
// zpos, so a window below the number of planes is always reused.
func (d *Device) disablePlane(s *planeSlot, ps *PlaneState) {
	d.log().Debug("plane disable", "idx", ps.Index, "win", s.winID, "planes", d.numPlanes,
		"zpos", ps.Zpos, "connected", s.connected, "visible", ps.Visible)

	if s.winID < MaxWindows && s.winID >= d.numPlanes {
		d.regs.setWinEnable(s.winID, false)
	}

	// A zpos change disables the plane too. The DPP keeps running unless
	// the plane becomes invisible.
	if s.connected && (!ps.Visible || !ps.Attached) {
		s.plane.Disable()
		s.connected = false
	}
}

// setColorMap disables all windows and fills the output with the fallback
// color through window win.
func (d *Device) setColorMap(win int, width, height int) {
	for i := range MaxWindows {
		d.regs.setWinEnable(i, false)
	}

	w := windowRegs{
		startPos: windowStart(0, 0),
		endPos:   windowEnd(0, 0, width, height),
		colormap: colorMap(d.fallback),
		blend:    BlendNone,
	}
	d.regs.setWindowControl(win, &w, true)
	d.regs.updateReqWindow(win)
}
