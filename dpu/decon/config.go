package decon

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
	"time"

	"golang.org/x/image/colornames"
)

var ErrInvalidConfig = errors.New("decon: invalid configuration")

type OpMode uint32

const (
	VideoMode OpMode = iota
	CommandMode
)

func (m OpMode) String() string {
	if m == CommandMode {
		return "command"
	}
	return "video"
}

type TrigMode uint32

const (
	HWTrigger TrigMode = iota
	SWTrigger
)

// OutType is a set of outputs the pipeline drives.
type OutType uint32

const (
	OutDSI0 OutType = 1 << iota
	OutDSI1
	OutDP0
	OutDP1
	OutWB

	OutDSI = OutDSI0 | OutDSI1
)

func (t OutType) String() string {
	switch {
	case t == OutDSI:
		return "Dual DSI"
	case t&OutDSI0 != 0:
		return "DSI0"
	case t&OutDSI1 != 0:
		return "DSI1"
	case t&OutDP0 != 0:
		return "DP0"
	case t&OutDP1 != 0:
		return "DP1"
	case t&OutWB != 0:
		return "WB"
	}
	return "none"
}

type DSIMode uint32

const (
	DSINone DSIMode = iota
	DSISingle
	DSIDual
)

// MaxTEFromDDI is the number of display driver ICs a tearing effect signal
// can be routed from.
const MaxTEFromDDI = 3

// DSC holds the display stream compression parameters.
type DSC struct {
	Enabled     bool `json:"enabled"`
	Count       int  `json:"dsc_count"`
	SliceCount  int  `json:"slice_count"`
	SliceHeight int  `json:"slice_height"`
}

func (c *DSC) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Count < 1 || c.Count > 2 || c.SliceCount < 1 || c.SliceCount > 4 || c.SliceHeight < 1 {
		return fmt.Errorf("%w: dsc %d encoders, %d slices of height %d",
			ErrInvalidConfig, c.Count, c.SliceCount, c.SliceHeight)
	}
	return nil
}

// Config is the static configuration of one pipeline. Zero values of the
// optional fields are replaced by defaults in Validate.
type Config struct {
	ID         int      `json:"id"`
	MaxWindows int      `json:"max_win"`
	OpMode     OpMode   `json:"op_mode"`
	TrigMode   TrigMode `json:"trig_mode"`
	OutType    OutType  `json:"out_type"`
	TEFrom     int      `json:"te_from"`

	ImageWidth  int `json:"image_width"`
	ImageHeight int `json:"image_height"`
	Bpc         int `json:"out_bpc"`
	DSC         DSC `json:"dsc"`

	FPS          int `json:"fps"`
	PPC          int `json:"ppc"`
	LineMemCount int `json:"line_mem_cnt"`
	CyclePerLine int `json:"cycle_per_line"`

	// FallbackColor names the color shown when no plane is attached, see
	// golang.org/x/image/colornames.
	FallbackColor string `json:"fallback_color"`

	// ShadowUpdateTimeout bounds the wait for the hardware to adopt the
	// previous commit.
	ShadowUpdateTimeout time.Duration `json:"shadow_update_timeout"`

	// HibernationFrames is the number of tearing effect edges without a
	// commit after which the pipeline hibernates. Zero disables
	// hibernation.
	HibernationFrames int `json:"hibernation_frames"`

	DSIMode DSIMode `json:"-"`
}

const (
	defaultShadowUpdateTimeout = 300 * time.Millisecond
	defaultFPS                 = 60
)

// Validate checks the configuration and fills in defaults and derived
// fields.
func (c *Config) Validate() error {
	if c.ID < 0 {
		return fmt.Errorf("%w: id %d", ErrInvalidConfig, c.ID)
	}
	if c.MaxWindows < 1 || c.MaxWindows > MaxWindows {
		return fmt.Errorf("%w: failed to parse max windows count %d", ErrInvalidConfig, c.MaxWindows)
	}
	if c.OpMode > CommandMode {
		return fmt.Errorf("%w: failed to parse operation mode %d", ErrInvalidConfig, c.OpMode)
	}
	if c.TrigMode > SWTrigger {
		return fmt.Errorf("%w: failed to parse trigger mode %d", ErrInvalidConfig, c.TrigMode)
	}
	if c.OutType == 0 || c.OutType&^(OutDSI|OutDP0|OutDP1|OutWB) != 0 {
		return fmt.Errorf("%w: failed to parse output type 0x%x", ErrInvalidConfig, uint32(c.OutType))
	}

	if c.TrigMode == HWTrigger {
		if c.TEFrom < 0 || c.TEFrom >= MaxTEFromDDI {
			return fmt.Errorf("%w: TE from DDI is wrong(%d)", ErrInvalidConfig, c.TEFrom)
		}
	} else {
		c.TEFrom = MaxTEFromDDI
	}

	if c.ImageWidth < 0 || c.ImageWidth > posMask+1 || c.ImageHeight < 0 || c.ImageHeight > posMask+1 {
		return fmt.Errorf("%w: image size %dx%d", ErrInvalidConfig, c.ImageWidth, c.ImageHeight)
	}
	if err := c.DSC.validate(); err != nil {
		return err
	}
	if _, err := parseColor(c.FallbackColor); err != nil {
		return err
	}

	if c.Bpc == 0 {
		c.Bpc = 8
	}
	if c.FPS == 0 {
		c.FPS = defaultFPS
	}
	if c.PPC == 0 {
		c.PPC = 2
	}
	if c.LineMemCount == 0 {
		c.LineMemCount = 4
	}
	if c.CyclePerLine == 0 {
		c.CyclePerLine = 8
	}
	if c.ShadowUpdateTimeout == 0 {
		c.ShadowUpdateTimeout = defaultShadowUpdateTimeout
	}

	switch {
	case c.OutType&OutDSI == OutDSI:
		c.DSIMode = DSIDual
	case c.OutType&OutDSI != 0:
		c.DSIMode = DSISingle
	default:
		c.DSIMode = DSINone
	}
	return nil
}

// hwTE reports whether frames are triggered by the tearing effect signal of
// a command mode panel.
func (c *Config) hwTE() bool {
	return c.OpMode == CommandMode && c.TrigMode == HWTrigger
}

// frameTime is the duration of a single frame at the configured rate.
func (c *Config) frameTime() time.Duration {
	return time.Second / time.Duration(c.FPS)
}

// parseColor looks up a color by name. The empty name is black.
func parseColor(name string) (color.RGBA, error) {
	if name == "" {
		return colornames.Black, nil
	}
	c, ok := colornames.Map[strings.ToLower(name)]
	if !ok {
		return color.RGBA{}, fmt.Errorf("%w: unknown color %q", ErrInvalidConfig, name)
	}
	return c, nil
}

// colorMap encodes a color as the 24 bit RGB value of the window color map
// register.
func colorMap(c color.Color) uint32 {
	r, g, b, _ := c.RGBA()
	return (r>>8)<<16 | (g>>8)<<8 | b>>8
}

// Mode holds the parts of a display mode that change the pipeline
// configuration.
type Mode struct {
	Video  bool
	Width  int
	Height int
	Bpc    int
	DSC    DSC
}

func (m *Mode) validate() error {
	if m.Width < 0 || m.Width > posMask+1 || m.Height < 0 || m.Height > posMask+1 {
		return fmt.Errorf("%w: mode %dx%d", ErrInvalidConfig, m.Width, m.Height)
	}
	return m.DSC.validate()
}
