// Package dpu provides the hardware abstraction layer for the display
// processing unit.
//
// It implements register banks on top of a memory backing (physical memory
// mapped through /dev/mem on real hardware, plain memory for emulation and
// tests), the synchronization primitives shared between interrupt handlers
// and callers, and userspace interrupt lines. The register level drivers for
// the individual hardware blocks live in the sub-packages.
package dpu
