//go:build !linux

package console

import (
	"context"
	"errors"

	"github.com/clktmr/exynos/dpu"
)

type hardware struct {
	decon, hdr dpu.Mem
}

func openHardware(deconPhys, hdrPhys int64, uio string) (*hardware, error) {
	return nil, errors.New("register access through /dev/mem needs linux")
}

func (hw *hardware) run(ctx context.Context, handler func()) error { return nil }

func (hw *hardware) Close() error { return nil }
