package hdr_test

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/clktmr/exynos/dpu"
	"github.com/clktmr/exynos/dpu/hdr"
	dputesting "github.com/clktmr/exynos/testing"
)

func TestMain(m *testing.M) { dputesting.TestMain(m) }

func newHDR() (*hdr.HDR, *dputesting.RecordingMem) {
	rec := dputesting.NewRecordingMem(dpu.NewMemory(hdr.RegsSize))
	return hdr.New(dpu.NewBank("hdr", 0, rec)), rec
}

func ramp16(n int, step uint16) []uint16 {
	vals := make([]uint16, n)
	for i := range vals {
		vals[i] = uint16(i) * step
	}
	return vals
}

func ramp32(n int, step uint32) []uint32 {
	vals := make([]uint32, n)
	for i := range vals {
		vals[i] = uint32(i) * step
	}
	return vals
}

func testEOTF() *hdr.EOTF {
	return &hdr.EOTF{
		PosX: ramp16(hdr.EOTFLen, 0x1ff),
		PosY: ramp32(hdr.EOTFLen, 0x10001),
	}
}

func testToneMap() *hdr.ToneMap {
	return &hdr.ToneMap{
		CoeffR: 0x0da, CoeffG: 0x2dc, CoeffB: 0x04a,
		RangeXMin: 0x10, RangeXMax: 0xfff0,
		RangeYMin: 0x20, RangeYMax: 0xffe0,
		PosX: ramp16(hdr.ToneMapLen, 0x7ff),
		PosY: ramp32(hdr.ToneMapLen, 0x8000),
	}
}

func TestEOTFRoundTrip(t *testing.T) {
	h, _ := newHDR()
	lut := testEOTF()
	if err := h.SetEOTF(lut); err != nil {
		t.Fatal(err)
	}
	if !h.Enabled(hdr.BlockEOTF) {
		t.Fatal("eotf not enabled")
	}
	got := h.ReadEOTF()
	if !slices.Equal(got.PosX, lut.PosX) {
		t.Errorf("posx mismatch:\ngot  %v\nwant %v", got.PosX, lut.PosX)
	}
	if !slices.Equal(got.PosY, lut.PosY) {
		t.Errorf("posy mismatch:\ngot  %v\nwant %v", got.PosY, lut.PosY)
	}
}

func TestOETFRoundTrip(t *testing.T) {
	h, _ := newHDR()
	lut := &hdr.OETF{
		PosX: ramp16(hdr.OETFLen, 0x7ff),
		PosY: ramp16(hdr.OETFLen, 0x3ff),
	}
	if err := h.SetOETF(lut); err != nil {
		t.Fatal(err)
	}
	got := h.ReadOETF()
	if !slices.Equal(got.PosX, lut.PosX) || !slices.Equal(got.PosY, lut.PosY) {
		t.Errorf("got %v, want %v", got, lut)
	}
	if h.Enabled(hdr.BlockEOTF) {
		t.Error("oetf enabled eotf")
	}
}

func TestGamutRoundTrip(t *testing.T) {
	h, _ := newHDR()
	// BT.2020 to BT.709
	g := hdr.GamutFromFloat([3][3]float64{
		{1.6605, -0.5876, -0.0728},
		{-0.1246, 1.1329, -0.0083},
		{-0.0182, -0.1006, 1.1187},
	}, [3]float64{0, 0, 0})
	if err := h.SetGamut(g); err != nil {
		t.Fatal(err)
	}
	if got := h.ReadGamut(); *got != *g {
		t.Errorf("got %v, want %v", got, g)
	}
	if !h.Enabled(hdr.BlockGamut) {
		t.Error("gamut not enabled")
	}
}

func TestToneMapRoundTrip(t *testing.T) {
	h, _ := newHDR()
	tm := testToneMap()
	if err := h.SetToneMap(tm); err != nil {
		t.Fatal(err)
	}
	got := h.ReadToneMap()
	if got.CoeffR != tm.CoeffR || got.CoeffG != tm.CoeffG || got.CoeffB != tm.CoeffB {
		t.Errorf("coefficients: got %x %x %x", got.CoeffR, got.CoeffG, got.CoeffB)
	}
	if got.RangeXMin != tm.RangeXMin || got.RangeXMax != tm.RangeXMax ||
		got.RangeYMin != tm.RangeYMin || got.RangeYMax != tm.RangeYMax {
		t.Errorf("ranges: got %+v", got)
	}
	if !slices.Equal(got.PosX, tm.PosX) || !slices.Equal(got.PosY, tm.PosY) {
		t.Error("curve mismatch")
	}
}

func TestShortTableFailsWithoutWrites(t *testing.T) {
	h, rec := newHDR()

	lut := testEOTF()
	lut.PosX = lut.PosX[:hdr.EOTFLen-1]
	if err := h.SetEOTF(lut); !errors.Is(err, hdr.ErrLUTLength) {
		t.Errorf("SetEOTF: got %v, want ErrLUTLength", err)
	}

	oetf := &hdr.OETF{PosX: ramp16(hdr.OETFLen, 1), PosY: ramp16(hdr.OETFLen-1, 1)}
	if err := h.SetOETF(oetf); !errors.Is(err, hdr.ErrLUTLength) {
		t.Errorf("SetOETF: got %v, want ErrLUTLength", err)
	}

	tm := testToneMap()
	tm.PosY = tm.PosY[:hdr.ToneMapLen-1]
	if err := h.SetToneMap(tm); !errors.Is(err, hdr.ErrLUTLength) {
		t.Errorf("SetToneMap: got %v, want ErrLUTLength", err)
	}

	tm = testToneMap()
	tm.CoeffG = 0x400
	if err := h.SetToneMap(tm); !errors.Is(err, hdr.ErrFieldRange) {
		t.Errorf("SetToneMap: got %v, want ErrFieldRange", err)
	}

	if stores := rec.Stores(); len(stores) != 0 {
		t.Errorf("invalid tables caused %d register writes", len(stores))
	}
}

func TestDisableKeepsTables(t *testing.T) {
	h, rec := newHDR()
	if err := h.SetEOTF(testEOTF()); err != nil {
		t.Fatal(err)
	}
	if err := h.SetToneMap(testToneMap()); err != nil {
		t.Fatal(err)
	}
	rec.Reset()

	if err := h.SetEOTF(nil); err != nil {
		t.Fatal(err)
	}
	if err := h.SetToneMap(nil); err != nil {
		t.Fatal(err)
	}
	if h.Enabled(hdr.BlockEOTF) || h.Enabled(hdr.BlockToneMap) {
		t.Error("sub-blocks still enabled")
	}
	// Only MOD_CTRL was written.
	for _, s := range rec.Stores() {
		if s.Off != 0x4 {
			t.Errorf("unexpected write 0x%x to 0x%04x", s.V, s.Off)
		}
	}
	if got := h.ReadEOTF(); !slices.Equal(got.PosY, testEOTF().PosY) {
		t.Error("disabling modified the table")
	}
}

func TestSubBlocksIndependent(t *testing.T) {
	h, _ := newHDR()
	h.SetHDR(true)
	if err := h.SetEOTF(testEOTF()); err != nil {
		t.Fatal(err)
	}
	if err := h.SetGamut(&hdr.Gamut{}); err != nil {
		t.Fatal(err)
	}
	if err := h.SetGamut(nil); err != nil {
		t.Fatal(err)
	}
	if !h.Enabled(hdr.BlockEOTF) {
		t.Error("disabling gamut disabled eotf")
	}
	if h.Enabled(hdr.BlockGamut) {
		t.Error("gamut still enabled")
	}
}

func TestPrint(t *testing.T) {
	h, _ := newHDR()

	var buf bytes.Buffer
	h.PrintEOTF(&buf)
	if got := buf.String(); got != "HDR: eotf off\n" {
		t.Errorf("disabled eotf printed %q", got)
	}

	if err := h.SetOETF(&hdr.OETF{PosX: ramp16(hdr.OETFLen, 1), PosY: ramp16(hdr.OETFLen, 2)}); err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	h.PrintOETF(&buf)
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")

	// header, two tables of 33 entries with a header and 7 lines each
	if len(lines) != 1+2*(1+7) {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if lines[0] != "HDR: oetf on" {
		t.Errorf("header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "POSX: (crc8 0x") {
		t.Errorf("table header %q", lines[1])
	}
	want := "[   0]       0 [   1]       1 [   2]       2 [   3]       3 [   4]       4"
	if lines[2] != want {
		t.Errorf("got  %q\nwant %q", lines[2], want)
	}
	if last := lines[8]; last != "[  30]      1e [  31]      1f [  32]      20" {
		t.Errorf("last line %q", last)
	}
}

func TestDump(t *testing.T) {
	h, _ := newHDR()
	h.SetHDR(true)
	if err := h.SetToneMap(testToneMap()); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	h.Dump(&buf)
	out := buf.String()
	for _, s := range []string{"HDR0: on", "HDR: eotf off", "HDR: gammut off",
		"HDR: tone mapping on", "COEFF: 0x4ab70da", "HDR: oetf off"} {
		if !strings.Contains(out, s) {
			t.Errorf("dump lacks %q:\n%s", s, out)
		}
	}
}

func TestLumaWeights(t *testing.T) {
	var tm hdr.ToneMap
	tm.SetLumaWeights(0.2126, 0.7152, 0.0722)
	want := testToneMap()
	if tm.CoeffR != want.CoeffR || tm.CoeffG != want.CoeffG || tm.CoeffB != want.CoeffB {
		t.Errorf("got %#x %#x %#x", tm.CoeffR, tm.CoeffG, tm.CoeffB)
	}

	h, _ := newHDR()
	tm = *testToneMap()
	tm.SetLumaWeights(1, 0, 0)
	if err := h.SetToneMap(&tm); !errors.Is(err, hdr.ErrFieldRange) {
		t.Errorf("weight 1.0: %v", err)
	}
}
