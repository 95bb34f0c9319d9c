package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/wippyai/vecmem/device"
	"github.com/wippyai/vecmem/memory"
	"github.com/wippyai/vecmem/queue"
	"github.com/wippyai/vecmem/transfer"
)

func main() {
	var (
		rows        = flag.String("rows", "5,2,4,7,0,2", "Row sizes (comma-separated)")
		scale       = flag.Float64("scale", 2, "Kernel multiplier")
		offset      = flag.Float64("offset", 1, "Kernel addend")
		pages       = flag.Uint("pages", device.DefaultPages, "Device memory size in 64KiB pages")
		workers     = flag.Int("workers", 0, "Kernel goroutines (0 = NumCPU)")
		resizable   = flag.Bool("resizable", false, "Use resizable device rows")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	log := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		log = l
		defer func() { _ = log.Sync() }()
	}
	memory.SetLogger(log)
	device.SetLogger(log)
	queue.SetLogger(log)
	transfer.SetLogger(log)

	sizes, err := parseSizes(*rows)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Usage: vecmem [-rows 5,2,4] [-scale 2] [-offset 1] [-resizable] [-v]")
		fmt.Fprintln(os.Stderr, "       vecmem -i  (interactive mode)")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	devicePages, err := parsePages(*pages)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	p := pipeline{
		sizes:     sizes,
		scale:     float32(*scale),
		offset:    float32(*offset),
		pages:     devicePages,
		workers:   *workers,
		resizable: *resizable,
	}

	if *interactive {
		if err := runInteractive(p, log); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(p, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(p pipeline, log *zap.Logger) error {
	r, err := p.run(context.Background(), log)
	if err != nil {
		return err
	}

	fmt.Printf("Device: %s\n", r.device)
	fmt.Printf("Rows: %d (contiguous: %v)\n", len(r.input), r.contiguous)
	fmt.Printf("\nInput:\n%s", formatRows(r.input))
	fmt.Printf("\nOutput (x*%g + %g):\n%s", p.scale, p.offset, formatRows(r.output))
	fmt.Printf("\nDevice allocations: %d, peak %d bytes\n", r.stats.Allocations, r.stats.PeakBytes)
	return nil
}
