// Package fixed provides the fixed-point types used by the color pipeline
// registers.
package fixed

//go:generate go run mkfixed.go

// Int16_16 is the signed format of gamut matrix coefficients and offsets.
type Int16_16 int32

// UInt6_10 is the format of the tone mapping luminance weights. The
// register fields hold only the 10 fractional bits.
type UInt6_10 uint16
