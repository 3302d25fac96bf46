// Package debug holds consistency checks for the register drivers. They
// are compiled in with the debug build tag and vanish otherwise, as every
// check is guarded by the Enabled constant.
//
// Release builds report a hardware fault only through the error results of
// the affected device.
package debug

import "fmt"

// Assert panics with the formatted message if ok is false.
func Assert(ok bool, format string, args ...any) {
	if Enabled && !ok {
		panic(fmt.Sprintf(format, args...))
	}
}

// AssertNil panics if err is not nil.
func AssertNil(err error) {
	if Enabled && err != nil {
		panic(err)
	}
}

// Fault stops at a desynchronized hardware state.
func Fault(format string, args ...any) {
	if Enabled {
		panic("fault: " + fmt.Sprintf(format, args...))
	}
}
