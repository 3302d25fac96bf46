// Package testing provides utilities for writing tests against emulated
// display pipelines.
package testing

import (
	"flag"
	"log/slog"
	"os"
	"testing"

	"github.com/clktmr/exynos/dpu"
)

// TestMain should be used as TestMain for dpu tests. Driver logs are written
// to stderr in verbose mode.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Verbose() {
		h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		dpu.SetLogger(slog.New(h))
	}
	os.Exit(m.Run())
}
