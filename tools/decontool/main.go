// Command decontool drives and inspects display pipelines during bring-up.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/debug"

	"github.com/clktmr/exynos/tools/console"
	"github.com/clktmr/exynos/tools/regdump"
)

type command struct {
	name  string
	short string
	run   func(args []string)
}

var commands = []command{
	{"console", "drive a real or emulated pipeline interactively", console.Main},
	{"regdump", "print saved register snapshots", regdump.Main},
	{"version", "print the module version", version},
}

func usage() {
	w := flag.CommandLine.Output()
	fmt.Fprintf(w, "Usage: %s <command> [arguments]\n\nCommands:\n", os.Args[0])
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.short)
	}
}

func version(args []string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		log.Fatalln("no build info")
	}
	fmt.Println(info.Main.Path, info.Main.Version)
}

func main() {
	log.Default().SetFlags(0)
	flag.Usage = usage
	flag.Parse()

	name := flag.Arg(0)
	for _, c := range commands {
		if c.name == name {
			c.run(flag.Args())
			return
		}
	}
	if name != "" {
		fmt.Fprintf(flag.CommandLine.Output(), "unknown command: %s\n\n", name)
	}
	flag.Usage()
	os.Exit(1)
}
