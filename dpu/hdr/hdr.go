// Package hdr programs the HDR color pipeline of a DPP channel.
//
// The pipeline consists of four sub-blocks which are applied in order: the
// inverse EOTF linearizes the input, the gamut matrix converts between color
// spaces, tone mapping compresses the luminance range and the OETF encodes the
// result for the output. Each sub-block has its own enable bit and is
// programmed independently of the per-frame layer commit. Writes take effect
// immediately.
package hdr

import (
	"log/slog"
	"strconv"

	"github.com/clktmr/exynos/dpu"
)

// HDR is the color pipeline of one DPP channel.
type HDR struct {
	regs *dpu.Bank
}

func New(regs *dpu.Bank) *HDR {
	return &HDR{regs: regs}
}

func (h *HDR) log() *slog.Logger {
	return dpu.Logger().With("hdr", h.regs.ID)
}

// SetHDR enables or disables the whole color pipeline.
func (h *HDR) SetHDR(en bool) {
	var v uint32
	if en {
		v = comCtrlEnable
	}
	h.regs.WriteMask(regComCtrl, v, comCtrlEnable)
}

func (h *HDR) setEnable(b Block, en bool) {
	var v uint32
	if en {
		v = uint32(b)
	}
	h.regs.WriteMask(regModCtrl, v, uint32(b))
}

// Enabled reports whether sub-block b is enabled.
func (h *HDR) Enabled(b Block) bool {
	return h.regs.ReadMask(regModCtrl, uint32(b)) != 0
}

func (h *HDR) writeTable(name string, off uint32, words []uint32) {
	log := h.log()
	for i, v := range words {
		h.regs.WriteRelaxed(off+uint32(i)*4, v)
		log.Debug(name, "idx", i, "val", hex(v))
	}
}

// SetEOTF programs the inverse EOTF. A nil lut disables the sub-block
// without touching the tables.
func (h *HDR) SetEOTF(lut *EOTF) error {
	if lut == nil {
		h.setEnable(BlockEOTF, false)
		return nil
	}
	if err := lut.validate(); err != nil {
		return err
	}

	h.writeTable("eotf posx", regEOTFPosX, packPairs(lut.PosX))
	h.writeTable("eotf posy", regEOTFPosY, lut.PosY)
	h.setEnable(BlockEOTF, true)
	return nil
}

// SetOETF programs the OETF. A nil lut disables the sub-block without
// touching the tables.
func (h *HDR) SetOETF(lut *OETF) error {
	if lut == nil {
		h.setEnable(BlockOETF, false)
		return nil
	}
	if err := lut.validate(); err != nil {
		return err
	}

	h.writeTable("oetf posx", regOETFPosX, packPairs(lut.PosX))
	h.writeTable("oetf posy", regOETFPosY, packPairs(lut.PosY))
	h.setEnable(BlockOETF, true)
	return nil
}

// SetGamut programs the gamut matrix. A nil gamut disables the sub-block.
func (h *HDR) SetGamut(g *Gamut) error {
	if g == nil {
		h.setEnable(BlockGamut, false)
		return nil
	}

	h.writeTable("gm coeffs", regGMCoef, g.Coeffs[:])
	h.writeTable("gm offsets", regGMOffs, g.Offsets[:])
	h.setEnable(BlockGamut, true)
	return nil
}

// SetToneMap programs tone mapping. A nil tm clears only the enable bit, the
// stale tables are irrelevant while disabled.
func (h *HDR) SetToneMap(tm *ToneMap) error {
	if tm == nil {
		h.setEnable(BlockToneMap, false)
		return nil
	}
	if err := tm.validate(); err != nil {
		return err
	}

	log := h.log()
	coef := tm.coeffWord()
	h.regs.WriteRelaxed(regTMCoef, coef)
	log.Debug("tm coeff", "val", hex(coef))

	rngx := rangeWord(tm.RangeXMin, tm.RangeXMax)
	h.regs.WriteRelaxed(regTMRngX, rngx)
	log.Debug("tm rngx", "val", hex(rngx))

	rngy := rangeWord(tm.RangeYMin, tm.RangeYMax)
	h.regs.WriteRelaxed(regTMRngY, rngy)
	log.Debug("tm rngy", "val", hex(rngy))

	h.writeTable("tm posx", regTMPosX, packPairs(tm.PosX))
	h.writeTable("tm posy", regTMPosY, tm.PosY)
	h.setEnable(BlockToneMap, true)
	return nil
}

func (h *HDR) readWords(off uint32, n int) []uint32 {
	words := make([]uint32, n)
	for i := range words {
		words[i] = h.regs.Read(off + uint32(i)*4)
	}
	return words
}

// ReadEOTF reconstructs the inverse EOTF currently held by the registers,
// regardless of the enable bit.
func (h *HDR) ReadEOTF() *EOTF {
	return &EOTF{
		PosX: unpackPairs(h.readWords(regEOTFPosX, (EOTFLen+1)/2), EOTFLen),
		PosY: h.readWords(regEOTFPosY, EOTFLen),
	}
}

func (h *HDR) ReadOETF() *OETF {
	return &OETF{
		PosX: unpackPairs(h.readWords(regOETFPosX, (OETFLen+1)/2), OETFLen),
		PosY: unpackPairs(h.readWords(regOETFPosY, (OETFLen+1)/2), OETFLen),
	}
}

func (h *HDR) ReadGamut() *Gamut {
	g := &Gamut{}
	copy(g.Coeffs[:], h.readWords(regGMCoef, GamutCoeffs))
	copy(g.Offsets[:], h.readWords(regGMOffs, GamutOffsets))
	return g
}

func (h *HDR) ReadToneMap() *ToneMap {
	coef := h.regs.Read(regTMCoef)
	rngx := h.regs.Read(regTMRngX)
	rngy := h.regs.Read(regTMRngY)
	return &ToneMap{
		CoeffR:    uint16(coef>>tmCoefRShift) & tmCoefMax,
		CoeffG:    uint16(coef>>tmCoefGShift) & tmCoefMax,
		CoeffB:    uint16(coef>>tmCoefBShift) & tmCoefMax,
		RangeXMin: uint16(rngx >> rngMinShift),
		RangeXMax: uint16(rngx >> rngMaxShift),
		RangeYMin: uint16(rngy >> rngMinShift),
		RangeYMax: uint16(rngy >> rngMaxShift),
		PosX:      unpackPairs(h.readWords(regTMPosX, (ToneMapLen+1)/2), ToneMapLen),
		PosY:      h.readWords(regTMPosY, ToneMapLen),
	}
}

type hex uint32

func (v hex) LogValue() slog.Value {
	return slog.StringValue("0x" + strconv.FormatUint(uint64(v), 16))
}
