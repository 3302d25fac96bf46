package dpu

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// IRQLine is an interrupt line exported to userspace by the uio framework.
// Reading the device blocks until the next interrupt, writing 1 unmasks the
// line again.
type IRQLine struct {
	Name string
	f    *os.File
}

func OpenIRQLine(name, path string) (*IRQLine, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &IRQLine{Name: name, f: f}, nil
}

func (l *IRQLine) unmask() error {
	var buf [4]byte
	binary.NativeEndian.PutUint32(buf[:], 1)
	_, err := l.f.Write(buf[:])
	return err
}

// Run calls handler for every interrupt on the line until ctx is done. The
// line is unmasked only after handler returned, so handler never runs
// concurrently with itself.
func (l *IRQLine) Run(ctx context.Context, handler func()) error {
	fds := []unix.PollFd{{Fd: int32(l.f.Fd()), Events: unix.POLLIN}}
	var buf [4]byte
	for {
		if err := l.unmask(); err != nil {
			return fmt.Errorf("%s: unmask: %w", l.Name, err)
		}

	wait:
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := unix.Poll(fds, 100)
		if errors.Is(err, unix.EINTR) || n == 0 {
			goto wait
		}
		if err != nil {
			return fmt.Errorf("%s: poll: %w", l.Name, err)
		}

		if _, err := l.f.Read(buf[:]); err != nil {
			return fmt.Errorf("%s: read: %w", l.Name, err)
		}
		handler()
	}
}

func (l *IRQLine) Close() error {
	return l.f.Close()
}
