package dpu

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

const snapshotMagic = "DPUS"

var ErrSnapshotFormat = errors.New("dpu: invalid snapshot")

// Snapshot is a copy of a register bank, taken for offline triage.
type Snapshot struct {
	Name  string
	ID    int
	Words []uint32
}

func TakeSnapshot(b *Bank) *Snapshot {
	s := &Snapshot{Name: b.Name, ID: b.ID}
	s.Words = make([]uint32, b.mem.Len()/4)
	for i := range s.Words {
		s.Words[i] = b.mem.Load(uint32(i * 4))
	}
	return s
}

// Bank returns a bank backed by a copy of the snapshot's registers.
func (s *Snapshot) Bank() *Bank {
	mem := NewMemory(len(s.Words) * 4)
	for i, v := range s.Words {
		mem.Store(uint32(i*4), v)
	}
	return NewBank(s.Name, s.ID, mem)
}

// WriteTo writes the zlib compressed snapshot to w.
func (s *Snapshot) WriteTo(w io.Writer) (n int64, err error) {
	cw := &countingWriter{w: w}
	zw := zlib.NewWriter(cw)

	hdr := make([]byte, 0, 16+len(s.Name))
	hdr = append(hdr, snapshotMagic...)
	hdr = binary.LittleEndian.AppendUint32(hdr, uint32(s.ID))
	hdr = binary.LittleEndian.AppendUint32(hdr, uint32(len(s.Name)))
	hdr = append(hdr, s.Name...)
	hdr = binary.LittleEndian.AppendUint32(hdr, uint32(len(s.Words)))
	if _, err = zw.Write(hdr); err != nil {
		return cw.n, err
	}
	if err = binary.Write(zw, binary.LittleEndian, s.Words); err != nil {
		return cw.n, err
	}
	err = zw.Close()
	return cw.n, err
}

// ReadSnapshot reads a snapshot written by Snapshot.WriteTo.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	zr, err := zlib.NewReader(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotFormat, err)
	}
	defer zr.Close()

	var magic [4]byte
	if _, err := io.ReadFull(zr, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotFormat, err)
	}
	if string(magic[:]) != snapshotMagic {
		return nil, ErrSnapshotFormat
	}

	var id, nameLen uint32
	if err := binary.Read(zr, binary.LittleEndian, &id); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotFormat, err)
	}
	if err := binary.Read(zr, binary.LittleEndian, &nameLen); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotFormat, err)
	}
	if nameLen > 256 {
		return nil, ErrSnapshotFormat
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(zr, name); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotFormat, err)
	}

	var count uint32
	if err := binary.Read(zr, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotFormat, err)
	}
	if count > 1<<20 {
		return nil, ErrSnapshotFormat
	}
	s := &Snapshot{Name: string(name), ID: int(id), Words: make([]uint32, count)}
	if err := binary.Read(zr, binary.LittleEndian, s.Words); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotFormat, err)
	}
	return s, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (w *countingWriter) Write(p []byte) (n int, err error) {
	n, err = w.w.Write(p)
	w.n += int64(n)
	return
}
