//go:build debug

package debug

// Enabled guards checks that are expensive or could panic themselves, e.g.
//
//	if debug.Enabled {
//		debug.AssertNil(b.Check(off))
//	}
const Enabled = true
