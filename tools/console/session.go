package console

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/buildkite/shellwords"
	"golang.org/x/image/colornames"

	"github.com/clktmr/exynos/dpu"
	"github.com/clktmr/exynos/dpu/decon"
	"github.com/clktmr/exynos/dpu/hdr"
)

var errQuit = errors.New("quit")

// Session executes console commands against one pipeline and the color
// pipeline of its first plane.
type Session struct {
	dev  *decon.Device
	regs *dpu.Bank
	hdr  *hdr.HDR
	hdrs *dpu.Bank
	out  io.Writer

	planes map[int]decon.PlaneState // staged for the next flush
	prev   map[int]decon.PlaneState // of the last flush
	last   *decon.CrtcState
}

func NewSession(dev *decon.Device, regs, hdrRegs *dpu.Bank, out io.Writer) *Session {
	return &Session{
		dev:    dev,
		regs:   regs,
		hdr:    hdr.New(hdrRegs),
		hdrs:   hdrRegs,
		out:    out,
		planes: make(map[int]decon.PlaneState),
		prev:   make(map[int]decon.PlaneState),
	}
}

const helpString = `commands:
	enable                                   power up the pipeline
	disable                                  power down the pipeline
	plane <idx> <z> <x> <y> <w> <h> [alpha] [color]
	                                         stage a plane for the next flush
	unplane <idx>                            remove a plane on the next flush
	flush                                    commit the staged planes
	hibernate                                enter hibernation
	eotf|oetf linear|off                     program a transfer function
	gamut bt2020|off                         program the gamut matrix
	tonemap bt709|off                        program a linear tone map
	state                                    print the pipeline state
	dump                                     dump all registers
	save decon|hdr <file>                    save a register snapshot
	quit
`

// Exec runs a single command line.
func (s *Session) Exec(line string) error {
	args, err := shellwords.Split(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}

	ctx := context.Background()
	switch cmd, args := args[0], args[1:]; cmd {
	case "help":
		fmt.Fprint(s.out, helpString)
	case "quit", "exit":
		return errQuit
	case "enable":
		return s.dev.Enable(ctx, nil)
	case "disable":
		return s.dev.Disable(ctx)
	case "plane":
		return s.stagePlane(args)
	case "unplane":
		if len(args) != 1 {
			return errors.New("usage: unplane <idx>")
		}
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		delete(s.planes, idx)
	case "flush":
		return s.flush()
	case "hibernate":
		return s.dev.EnterHibernation()
	case "eotf", "oetf", "gamut", "tonemap":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <curve>|off", cmd)
		}
		return s.setColor(cmd, args[0])
	case "state":
		fmt.Fprintf(s.out, "decon%d: %s, %d timeouts\n", s.dev.ID(), s.dev.State(), s.dev.Timeouts())
		for win := range decon.MaxWindows {
			fmt.Fprintf(s.out, "win%d: %v\n", win, s.dev.WindowEnabled(win))
		}
	case "dump":
		s.dev.Dump(s.out)
		s.hdr.Dump(s.out)
	case "save":
		if len(args) != 2 {
			return errors.New("usage: save decon|hdr <file>")
		}
		return s.save(args[0], args[1])
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
	return nil
}

func (s *Session) stagePlane(args []string) error {
	if len(args) < 6 || len(args) > 8 {
		return errors.New("usage: plane <idx> <z> <x> <y> <w> <h> [alpha] [color]")
	}
	var v [6]int
	for i := range v {
		n, err := strconv.Atoi(args[i])
		if err != nil {
			return err
		}
		v[i] = n
	}
	if v[0] < 0 || v[0] >= 32 {
		return fmt.Errorf("plane index %d out of range [0, 32)", v[0])
	}
	ps := decon.PlaneState{
		Index:    v[0],
		Zpos:     v[1],
		Visible:  true,
		Attached: true,
		Crtc:     image.Rect(v[2], v[3], v[2]+v[4], v[3]+v[5]),
		Alpha:    decon.AlphaOpaque,
		Blend:    decon.BlendPremulti,
	}
	if len(args) > 6 {
		alpha, err := strconv.ParseUint(args[6], 0, 16)
		if err != nil {
			return err
		}
		ps.Alpha = uint16(alpha)
	}
	if len(args) > 7 {
		c, ok := colornames.Map[strings.ToLower(args[7])]
		if !ok {
			return fmt.Errorf("unknown color %q", args[7])
		}
		ps.ColorMap = c
	}
	s.planes[ps.Index] = ps
	return nil
}

// flush commits the staged planes. Planes that were removed or changed
// their zpos since the last flush are disabled first.
func (s *Session) flush() error {
	st := &decon.CrtcState{}
	idxs := make([]int, 0, len(s.planes))
	for idx := range s.planes {
		st.PlaneMask |= 1 << idx
		idxs = append(idxs, idx)
	}
	slices.Sort(idxs)

	if err := s.dev.AtomicCheck(st); err != nil {
		return err
	}
	if err := s.dev.AtomicBegin(st); err != nil {
		return err
	}

	var errs []error
	for idx, old := range s.prev {
		ps, ok := s.planes[idx]
		switch {
		case !ok:
			old.Visible = false
			ps = old
		case ps.Zpos == old.Zpos:
			continue
		}
		errs = append(errs, s.dev.DisablePlane(&ps))
	}
	for _, idx := range idxs {
		ps := s.planes[idx]
		errs = append(errs, s.dev.UpdatePlane(&ps))
	}
	errs = append(errs, s.dev.AtomicFlush(s.last, st))

	s.last = st
	s.prev = make(map[int]decon.PlaneState, len(s.planes))
	for idx, ps := range s.planes {
		s.prev[idx] = ps
	}
	return errors.Join(errs...)
}

func linearCurve(n int) []uint16 {
	vals := make([]uint16, n)
	for i := range vals {
		vals[i] = uint16(min(i*0x10000/(n-1), 0xffff))
	}
	return vals
}

// BT.2020 to BT.709 primaries
var bt2020 = [3][3]float64{
	{1.6605, -0.5876, -0.0728},
	{-0.1246, 1.1329, -0.0083},
	{-0.0182, -0.1006, 1.1187},
}

func (s *Session) setColor(block, curve string) error {
	off := curve == "off"
	if (block == "eotf" || block == "oetf") && !off && curve != "linear" {
		return fmt.Errorf("unknown curve %q", curve)
	}
	switch block {
	case "eotf":
		if off {
			return s.hdr.SetEOTF(nil)
		}
		x := linearCurve(hdr.EOTFLen)
		y := make([]uint32, len(x))
		for i, v := range x {
			y[i] = uint32(v)
		}
		s.hdr.SetHDR(true)
		return s.hdr.SetEOTF(&hdr.EOTF{PosX: x, PosY: y})
	case "oetf":
		if off {
			return s.hdr.SetOETF(nil)
		}
		s.hdr.SetHDR(true)
		return s.hdr.SetOETF(&hdr.OETF{PosX: linearCurve(hdr.OETFLen), PosY: linearCurve(hdr.OETFLen)})
	case "gamut":
		if off {
			return s.hdr.SetGamut(nil)
		}
		if curve != "bt2020" {
			return fmt.Errorf("unknown gamut %q", curve)
		}
		s.hdr.SetHDR(true)
		return s.hdr.SetGamut(hdr.GamutFromFloat(bt2020, [3]float64{}))
	case "tonemap":
		if off {
			return s.hdr.SetToneMap(nil)
		}
		if curve != "bt709" {
			return fmt.Errorf("unknown luma weights %q", curve)
		}
		tm := &hdr.ToneMap{
			RangeXMax: 0xffff,
			RangeYMax: 0xffff,
			PosX:      linearCurve(hdr.ToneMapLen),
			PosY:      make([]uint32, hdr.ToneMapLen),
		}
		tm.SetLumaWeights(0.2126, 0.7152, 0.0722)
		for i, v := range tm.PosX {
			tm.PosY[i] = uint32(v)
		}
		s.hdr.SetHDR(true)
		return s.hdr.SetToneMap(tm)
	}
	return nil
}

func (s *Session) save(block, name string) error {
	var b *dpu.Bank
	switch block {
	case "decon":
		b = s.regs
	case "hdr":
		b = s.hdrs
	default:
		return fmt.Errorf("unknown block %q", block)
	}

	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if _, err := dpu.TakeSnapshot(b).WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
