package decon

const (
	RegIntEn        = regIntEn
	RegExtraIntEn   = regExtraIntEn
	RegExtraIntPend = regExtraIntPend
	RegShadowUpdate = regShadowUpdate
	RegTrigCon      = regTrigCon
	RegWBCon        = regWBCon

	WinCon      = winCon
	WinColorMap = winColorMap

	WinConEn         = uint32(winConEn)
	WinConColorMapEn = uint32(winConColorMapEn)
	TrigMask         = uint32(trigMask)
)

func RegWin(n int) uint32 { return regWin(n) }
