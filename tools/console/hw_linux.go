package console

import (
	"context"
	"errors"

	"github.com/clktmr/exynos/dpu"
	"github.com/clktmr/exynos/dpu/decon"
	"github.com/clktmr/exynos/dpu/hdr"
)

// hardware holds the register mappings and interrupt line of a real
// pipeline.
type hardware struct {
	decon, hdr dpu.Mem
	mems       []*dpu.DevMem
	irq        *dpu.IRQLine
}

func openHardware(deconPhys, hdrPhys int64, uio string) (*hardware, error) {
	hw := &hardware{}
	if err := hw.open(deconPhys, hdrPhys, uio); err != nil {
		hw.Close()
		return nil, err
	}
	return hw, nil
}

func (hw *hardware) open(deconPhys, hdrPhys int64, uio string) (err error) {
	m, err := dpu.OpenDevMem(deconPhys, decon.RegsSize)
	if err != nil {
		return err
	}
	hw.mems = append(hw.mems, m)
	hw.decon = m

	if hdrPhys != 0 {
		m, err := dpu.OpenDevMem(hdrPhys, hdr.RegsSize)
		if err != nil {
			return err
		}
		hw.mems = append(hw.mems, m)
		hw.hdr = m
	} else {
		hw.hdr = dpu.NewMemory(hdr.RegsSize)
	}

	if uio != "" {
		if hw.irq, err = dpu.OpenIRQLine("decon", uio); err != nil {
			return err
		}
	}
	return nil
}

func (hw *hardware) run(ctx context.Context, handler func()) error {
	if hw.irq == nil {
		return nil
	}
	return hw.irq.Run(ctx, handler)
}

func (hw *hardware) Close() error {
	var errs []error
	for _, m := range hw.mems {
		errs = append(errs, m.Close())
	}
	if hw.irq != nil {
		errs = append(errs, hw.irq.Close())
	}
	return errors.Join(errs...)
}
