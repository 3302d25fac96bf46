package decon

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{MaxWindows: 6, OutType: OutDSI, ImageWidth: 1440, ImageHeight: 3040}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.PPC != 2 || cfg.LineMemCount != 4 || cfg.CyclePerLine != 8 {
		t.Errorf("defaults ppc %d line_mem_cnt %d cycle_per_line %d",
			cfg.PPC, cfg.LineMemCount, cfg.CyclePerLine)
	}
	if cfg.Bpc != 8 || cfg.FPS != 60 {
		t.Errorf("defaults bpc %d fps %d", cfg.Bpc, cfg.FPS)
	}
	if cfg.ShadowUpdateTimeout != 300*time.Millisecond {
		t.Errorf("shadow update timeout %v", cfg.ShadowUpdateTimeout)
	}
	if cfg.DSIMode != DSIDual {
		t.Errorf("dsi mode %d", cfg.DSIMode)
	}
}

func TestConfigTrigger(t *testing.T) {
	cfg := Config{MaxWindows: 4, OpMode: CommandMode, TrigMode: SWTrigger, OutType: OutDSI1, TEFrom: 7}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.TEFrom != MaxTEFromDDI {
		t.Errorf("sw trigger te_from %d", cfg.TEFrom)
	}
	if cfg.DSIMode != DSISingle || cfg.hwTE() {
		t.Errorf("dsi mode %d hw te %v", cfg.DSIMode, cfg.hwTE())
	}

	cfg = Config{MaxWindows: 4, OpMode: CommandMode, TrigMode: HWTrigger, OutType: OutDSI0, TEFrom: MaxTEFromDDI}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("te_from out of range: %v", err)
	}
}

func TestConfigInvalid(t *testing.T) {
	valid := Config{MaxWindows: 6, OutType: OutDP0}
	tests := map[string]func(c *Config){
		"no windows":     func(c *Config) { c.MaxWindows = 0 },
		"many windows":   func(c *Config) { c.MaxWindows = MaxWindows + 1 },
		"no output":      func(c *Config) { c.OutType = 0 },
		"unknown output": func(c *Config) { c.OutType = 1 << 9 },
		"op mode":        func(c *Config) { c.OpMode = 2 },
		"image size":     func(c *Config) { c.ImageWidth = 1 << 15 },
		"dsc slices":     func(c *Config) { c.DSC = DSC{Enabled: true, Count: 1, SliceCount: 5, SliceHeight: 40} },
		"color":          func(c *Config) { c.FallbackColor = "ultraviolet" },
	}
	for name, modify := range tests {
		cfg := valid
		modify(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: got %v, want ErrInvalidConfig", name, err)
		}
	}
}

func TestConfigJSON(t *testing.T) {
	data := `{"id": 1, "max_win": 6, "op_mode": 1, "trig_mode": 0, "out_type": 1,
		"te_from": 1, "image_width": 1080, "image_height": 2400,
		"dsc": {"enabled": true, "dsc_count": 2, "slice_count": 2, "slice_height": 40},
		"fallback_color": "Navy", "hibernation_frames": 5}`
	var cfg Config
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.ID != 1 || cfg.OpMode != CommandMode || cfg.TEFrom != 1 || !cfg.DSC.Enabled || cfg.HibernationFrames != 5 {
		t.Errorf("unexpected config %+v", cfg)
	}
	c, err := parseColor(cfg.FallbackColor)
	if err != nil || colorMap(c) != 0x000080 {
		t.Errorf("navy: 0x%06x %v", colorMap(c), err)
	}
}
