package regdump

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/clktmr/exynos/dpu"
	"github.com/clktmr/exynos/dpu/hdr"
)

const usageString = `Register snapshot printer.

Usage: %s [flags] <snapshot>...

`

var (
	flags = flag.NewFlagSet("regdump", flag.ExitOnError)

	raw = flags.Bool("raw", false, "print HDR snapshots as hex dump")
)

func usage() {
	fmt.Fprintf(flags.Output(), usageString, "regdump")
	flags.PrintDefaults()
}

func Main(args []string) {
	flags.Usage = usage
	flags.Parse(args[1:])

	if flags.NArg() < 1 {
		flags.Usage()
		os.Exit(1)
	}

	for _, name := range flags.Args() {
		if err := dump(os.Stdout, name, *raw); err != nil {
			log.Fatalln(err)
		}
	}
}

func dump(w io.Writer, name string, raw bool) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	s, err := dpu.ReadSnapshot(f)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	printSnapshot(w, s, raw)
	return nil
}

func printSnapshot(w io.Writer, s *dpu.Snapshot, raw bool) {
	b := s.Bank()
	if s.Name == "hdr" && !raw && len(s.Words)*4 >= hdr.RegsSize {
		hdr.New(b).Dump(w)
		return
	}

	fmt.Fprintf(w, "=== %s%d ===\n", s.Name, s.ID)
	// Runs of zero lines are skipped.
	zero := false
	for i := 0; i < len(s.Words); i += 4 {
		line := s.Words[i:min(i+4, len(s.Words))]
		if allZero(line) {
			if !zero {
				fmt.Fprintln(w, "*")
			}
			zero = true
			continue
		}
		zero = false
		b.Dump(w, uint32(i*4), len(line))
	}
}

func allZero(words []uint32) bool {
	for _, v := range words {
		if v != 0 {
			return false
		}
	}
	return true
}
