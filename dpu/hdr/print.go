package hdr

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/sigurn/crc8"
)

var tableCRC = crc8.MakeTable(crc8.CRC8)

const entriesPerLine = 5

type elemSize int

const (
	elemSize16 elemSize = iota
	elemSize32
)

// printTable reads count entries starting at register start and prints them
// as [index]value pairs, five per line. The header line carries a CRC-8 of
// the raw register words, which makes comparing tables between devices
// quick.
func (h *HDR) printTable(w io.Writer, name string, start uint32, count int, size elemSize) {
	nwords := count
	if size == elemSize16 {
		nwords = (count + 1) / 2
	}
	words := h.readWords(start, nwords)

	raw := make([]byte, 0, 4*len(words))
	for _, v := range words {
		raw = binary.LittleEndian.AppendUint32(raw, v)
	}
	fmt.Fprintf(w, "%s: (crc8 0x%02x)\n", name, crc8.Checksum(raw, tableCRC))

	var line strings.Builder
	n := 0
	emit := func(idx int, val uint32) {
		fmt.Fprintf(&line, "[%4d]%8x ", idx, val)
		n++
		if n%entriesPerLine == 0 {
			fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
			line.Reset()
		}
	}

	for i, reg := range words {
		if size == elemSize32 {
			emit(i, reg)
			continue
		}
		emit(i*2, uint32(lutLow(reg)))
		if i*2+1 != count {
			emit(i*2+1, uint32(lutHigh(reg)))
		}
	}
	if line.Len() != 0 {
		fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
	}
}

func onOff(en bool) string {
	if en {
		return "on"
	}
	return "off"
}

func (h *HDR) PrintEOTF(w io.Writer) {
	en := h.Enabled(BlockEOTF)
	fmt.Fprintf(w, "HDR: eotf %s\n", onOff(en))
	if !en {
		return
	}
	h.printTable(w, "POSX", regEOTFPosX, EOTFLen, elemSize16)
	h.printTable(w, "POSY", regEOTFPosY, EOTFLen, elemSize32)
}

func (h *HDR) PrintOETF(w io.Writer) {
	en := h.Enabled(BlockOETF)
	fmt.Fprintf(w, "HDR: oetf %s\n", onOff(en))
	if !en {
		return
	}
	h.printTable(w, "POSX", regOETFPosX, OETFLen, elemSize16)
	h.printTable(w, "POSY", regOETFPosY, OETFLen, elemSize16)
}

func (h *HDR) PrintGamut(w io.Writer) {
	en := h.Enabled(BlockGamut)
	fmt.Fprintf(w, "HDR: gammut %s\n", onOff(en))
	if !en {
		return
	}
	h.printTable(w, "COEFFS", regGMCoef, GamutCoeffs, elemSize32)
	h.printTable(w, "OFFSETS", regGMOffs, GamutOffsets, elemSize32)
}

// PrintToneMap prints the tone mapping registers even if the sub-block is
// disabled.
func (h *HDR) PrintToneMap(w io.Writer) {
	fmt.Fprintf(w, "HDR: tone mapping %s\n", onOff(h.Enabled(BlockToneMap)))
	fmt.Fprintf(w, "COEFF: 0x%x\n", h.regs.Read(regTMCoef))
	fmt.Fprintf(w, "RNGX: 0x%x\n", h.regs.Read(regTMRngX))
	fmt.Fprintf(w, "RNGY: 0x%x\n", h.regs.Read(regTMRngY))
	h.printTable(w, "POSX", regTMPosX, ToneMapLen, elemSize16)
	h.printTable(w, "POSY", regTMPosY, ToneMapLen, elemSize32)
}

// Dump prints the state of the whole color pipeline.
func (h *HDR) Dump(w io.Writer) {
	fmt.Fprintf(w, "HDR%d: %s\n", h.regs.ID, onOff(h.regs.ReadMask(regComCtrl, comCtrlEnable) != 0))
	h.PrintEOTF(w)
	h.PrintGamut(w)
	h.PrintToneMap(w)
	h.PrintOETF(w)
}
