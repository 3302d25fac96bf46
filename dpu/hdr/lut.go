package hdr

import (
	"errors"
	"fmt"

	"github.com/clktmr/exynos/dpu/fixed"
)

var (
	ErrLUTLength  = errors.New("hdr: lookup table length mismatch")
	ErrFieldRange = errors.New("hdr: value exceeds register field")
)

// EOTF is the inverse electro-optical transfer function, applied before
// gamut mapping. X positions are 16 bit, Y positions 32 bit.
type EOTF struct {
	PosX []uint16
	PosY []uint32
}

// OETF is the opto-electrical transfer function, applied after tone
// mapping.
type OETF struct {
	PosX []uint16
	PosY []uint16
}

// Gamut converts between color spaces:
//
//	|Rout| = |C00 C01 C02| |Rin| + |O0|
//	|Gout| = |C10 C11 C12| |Gin| + |O1|
//	|Bout| = |C20 C21 C22| |Bin| + |O2|
//
// Coefficients are stored in row order.
type Gamut struct {
	Coeffs  [GamutCoeffs]uint32
	Offsets [GamutOffsets]uint32
}

// GamutFromFloat encodes a conversion matrix and offsets as signed 16.16
// fixed point values.
func GamutFromFloat(m [3][3]float64, offsets [3]float64) *Gamut {
	g := &Gamut{}
	for i := range m {
		for j := range m[i] {
			g.Coeffs[i*3+j] = uint32(fixed.Int16_16F(m[i][j]))
		}
	}
	for i, o := range offsets {
		g.Offsets[i] = uint32(fixed.Int16_16F(o))
	}
	return g
}

// ToneMap compresses or expands the luminance range. The coefficients are
// the 10 bit luminance weights of the color components.
type ToneMap struct {
	CoeffR, CoeffG, CoeffB uint16
	RangeXMin, RangeXMax   uint16
	RangeYMin, RangeYMax   uint16

	PosX []uint16
	PosY []uint32
}

// SetLumaWeights sets the luminance weights of the color components, e.g.
// 0.2126, 0.7152, 0.0722 for BT.709. Each weight must be below 1.
func (tm *ToneMap) SetLumaWeights(r, g, b float64) {
	tm.CoeffR = uint16(fixed.UInt6_10F(r))
	tm.CoeffG = uint16(fixed.UInt6_10F(g))
	tm.CoeffB = uint16(fixed.UInt6_10F(b))
}

func checkLen(name string, got, want int) error {
	if got != want {
		return fmt.Errorf("%w: %s has %d entries, want %d", ErrLUTLength, name, got, want)
	}
	return nil
}

func (lut *EOTF) validate() error {
	if err := checkLen("eotf posx", len(lut.PosX), EOTFLen); err != nil {
		return err
	}
	return checkLen("eotf posy", len(lut.PosY), EOTFLen)
}

func (lut *OETF) validate() error {
	if err := checkLen("oetf posx", len(lut.PosX), OETFLen); err != nil {
		return err
	}
	return checkLen("oetf posy", len(lut.PosY), OETFLen)
}

func (tm *ToneMap) validate() error {
	for _, c := range []uint16{tm.CoeffR, tm.CoeffG, tm.CoeffB} {
		if c > tmCoefMax {
			return fmt.Errorf("%w: tone mapping coefficient 0x%x", ErrFieldRange, c)
		}
	}
	if err := checkLen("tm posx", len(tm.PosX), ToneMapLen); err != nil {
		return err
	}
	return checkLen("tm posy", len(tm.PosY), ToneMapLen)
}

func (tm *ToneMap) coeffWord() uint32 {
	return uint32(tm.CoeffB)<<tmCoefBShift | uint32(tm.CoeffG)<<tmCoefGShift |
		uint32(tm.CoeffR)<<tmCoefRShift
}

func rangeWord(lo, hi uint16) uint32 {
	return uint32(hi)<<rngMaxShift | uint32(lo)<<rngMinShift
}

// packPairs stores two consecutive entries per word, the even one in the low
// half. An odd length leaves the high half of the last word zero.
func packPairs(vals []uint16) []uint32 {
	words := make([]uint32, (len(vals)+1)/2)
	for i := range words {
		var high uint16
		if i*2+1 < len(vals) {
			high = vals[i*2+1]
		}
		words[i] = lutPair(vals[i*2], high)
	}
	return words
}

func unpackPairs(words []uint32, n int) []uint16 {
	vals := make([]uint16, n)
	for i := range vals {
		if i&1 == 0 {
			vals[i] = lutLow(words[i/2])
		} else {
			vals[i] = lutHigh(words[i/2])
		}
	}
	return vals
}
