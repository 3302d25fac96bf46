package console

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"golang.org/x/term"

	"github.com/clktmr/exynos/dpu"
	"github.com/clktmr/exynos/dpu/decon"
	"github.com/clktmr/exynos/dpu/hdr"
)

const usageString = `Interactive console for a display pipeline.

Without -devmem the pipeline is emulated.

Usage: %s [flags]

`

var (
	flags = flag.NewFlagSet("console", flag.ExitOnError)

	config  = flags.String("config", "", "pipeline configuration, JSON")
	devmem  = flags.Uint64("devmem", 0, "physical address of the DECON registers")
	hdrAddr = flags.Uint64("hdr", 0, "physical address of the HDR registers")
	uio     = flags.String("uio", "", "uio device of the DECON interrupt")
	planes  = flags.Int("planes", 4, "number of DPP channels")
	verbose = flags.Bool("v", false, "log driver debug messages")
)

func usage() {
	fmt.Fprintf(flags.Output(), usageString, "console")
	flags.PrintDefaults()
}

func loadConfig(name string) (cfg decon.Config, err error) {
	cfg = decon.Config{
		MaxWindows:  decon.MaxWindows,
		OutType:     decon.OutDSI0,
		ImageWidth:  1080,
		ImageHeight: 2400,
	}
	if name == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return cfg, err
	}
	err = json.Unmarshal(data, &cfg)
	return cfg, err
}

// logPlane stands in for a DPP channel driver.
type logPlane int

func (p logPlane) ID() int { return int(p) }

func (p logPlane) Update(ps *decon.PlaneState) error {
	dpu.Logger().Debug("dpp update", "ch", int(p), "crtc", ps.Crtc)
	return nil
}

func (p logPlane) Disable() {
	dpu.Logger().Debug("dpp disable", "ch", int(p))
}

type logSink struct{}

func (logSink) HandleEvent(id int)  {}
func (logSink) HandleVblank(id int) {}

func (logSink) Fault(id int, err error, dump []byte) {
	log.Printf("decon%d: %v", id, err)
	os.Stderr.Write(dump)
}

func Main(args []string) {
	flags.Usage = usage
	flags.Parse(args[1:])

	if flags.NArg() != 0 {
		flags.Usage()
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	dpu.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := loadConfig(*config)
	if err != nil {
		log.Fatalln("config:", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalln(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var deconMem, hdrMem dpu.Mem
	var emu *decon.Emulator
	var hw *hardware
	if *devmem != 0 {
		hw, err = openHardware(int64(*devmem), int64(*hdrAddr), *uio)
		if err != nil {
			log.Fatalln(err)
		}
		defer hw.Close()
		deconMem, hdrMem = hw.decon, hw.hdr
	} else {
		emu = decon.NewEmulator()
		deconMem, hdrMem = emu, dpu.NewMemory(hdr.RegsSize)
	}

	regs := dpu.NewBank("decon", cfg.ID, deconMem)
	hdrRegs := dpu.NewBank("hdr", 0, hdrMem)
	opts := decon.Options{Sink: logSink{}, Registry: decon.NewRegistry()}
	for ch := range *planes {
		opts.Planes = append(opts.Planes, logPlane(ch))
	}
	dev, err := decon.New(cfg, regs, opts)
	if err != nil {
		log.Fatalln(err)
	}

	if emu != nil {
		emu.IRQ = dev.HandleIRQ
		emu.TE = dev.HandleTE
		go emu.Run(ctx, time.Second/time.Duration(cfg.FPS))
	} else {
		go func() {
			if err := hw.run(ctx, dev.HandleIRQ); err != nil && !errors.Is(err, context.Canceled) {
				log.Println(err)
			}
		}()
	}
	if h := dev.Hibernation(); h != nil {
		go h.Run(ctx)
	}

	s := NewSession(dev, regs, hdrRegs, os.Stdout)
	if err := repl(ctx, s); err != nil {
		log.Println(err)
	}
	if err := opts.Registry.DisableAll(context.Background()); err != nil {
		log.Println(err)
	}
}

const prompt = "decon> "

// repl reads commands until quit, EOF or interrupt. A terminal gets line
// editing and history.
func repl(ctx context.Context, s *Session) error {
	fd := int(os.Stdin.Fd())
	var readLine func() (string, error)

	if term.IsTerminal(fd) {
		old, err := term.MakeRaw(fd)
		if err != nil {
			return err
		}
		defer term.Restore(fd, old)

		t := term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{os.Stdin, os.Stdout}, prompt)
		s.out = t
		readLine = t.ReadLine
	} else {
		scanner := bufio.NewScanner(os.Stdin)
		readLine = func() (string, error) {
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return "", err
				}
				return "", io.EOF
			}
			return scanner.Text(), nil
		}
	}

	for ctx.Err() == nil {
		line, err := readLine()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		switch err := s.Exec(line); {
		case errors.Is(err, errQuit):
			return nil
		case err != nil:
			fmt.Fprintln(s.out, "error:", err)
		}
	}
	return nil
}
