package hdr

// Register map of one HDR block. Every DPP channel has its own block.
const (
	regComCtrl = 0x0000
	regModCtrl = 0x0004

	regOETFPosX = 0x0008 // 17 words, 2 entries per word
	regOETFPosY = 0x004c // 17 words, 2 entries per word
	regEOTFPosX = 0x0090 // 65 words, 2 entries per word
	regEOTFPosY = 0x0194 // 129 words
	regGMCoef   = 0x0398 // 9 words
	regGMOffs   = 0x03bc // 3 words
	regTMCoef   = 0x03c8
	regTMRngX   = 0x03cc
	regTMRngY   = 0x03d0
	regTMPosX   = 0x03d4 // 17 words, 2 entries per word
	regTMPosY   = 0x0418 // 33 words

	// RegsSize is the size of the register window in bytes.
	RegsSize = 0x049c
)

const comCtrlEnable = 1 << 0

// Block selects a sub-block by its enable bit in the MOD_CTRL register.
type Block uint32

const (
	BlockOETF    Block = 1 << 0
	BlockEOTF    Block = 1 << 1
	BlockGamut   Block = 1 << 2
	BlockToneMap Block = 1 << 5
)

func (b Block) String() string {
	switch b {
	case BlockOETF:
		return "oetf"
	case BlockEOTF:
		return "eotf"
	case BlockGamut:
		return "gammut"
	case BlockToneMap:
		return "tone mapping"
	}
	return "unknown"
}

// Number of entries per table.
const (
	EOTFLen      = 129
	OETFLen      = 33
	ToneMapLen   = 33
	GamutCoeffs  = 9
	GamutOffsets = 3
)

// Tone mapping coefficient fields, 10 bits each.
const (
	tmCoefRShift = 0
	tmCoefGShift = 10
	tmCoefBShift = 20
	tmCoefMax    = 0x3ff
)

// Range registers hold the minimum in the low and the maximum in the high
// half.
const (
	rngMinShift = 0
	rngMaxShift = 16
)

// lutLow and lutHigh select the entries of a paired table word.
func lutLow(reg uint32) uint16  { return uint16(reg) }
func lutHigh(reg uint32) uint16 { return uint16(reg >> 16) }

func lutPair(low, high uint16) uint32 { return uint32(high)<<16 | uint32(low) }
