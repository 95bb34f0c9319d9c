package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/vecmem"
	"github.com/wippyai/vecmem/containers"
	"github.com/wippyai/vecmem/data"
	"github.com/wippyai/vecmem/device"
	"github.com/wippyai/vecmem/memory"
	"github.com/wippyai/vecmem/queue"
	"github.com/wippyai/vecmem/transfer"
)

// pipeline describes one host -> device -> kernel -> host round trip.
type pipeline struct {
	sizes     []vecmem.SizeType
	scale     float32
	offset    float32
	pages     uint32
	workers   int
	resizable bool
}

type report struct {
	device     string
	input      [][]float32
	output     [][]float32
	stats      memory.Stats
	contiguous bool
}

func parseSizes(s string) ([]vecmem.SizeType, error) {
	var sizes []vecmem.SizeType
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("row size %q: %w", f, err)
		}
		sizes = append(sizes, vecmem.SizeType(n))
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("no row sizes given")
	}
	return sizes, nil
}

// parsePages checks a -pages value before it is narrowed to the device's uint32.
func parsePages(pages uint) (uint32, error) {
	if pages > device.MaxPages {
		return 0, fmt.Errorf("-pages %d exceeds the maximum of %d", pages, device.MaxPages)
	}
	return uint32(pages), nil
}

func (p pipeline) rows() [][]float32 {
	rows := make([][]float32, len(p.sizes))
	next := float32(1)
	for i, n := range p.sizes {
		rows[i] = make([]float32, n)
		for j := range rows[i] {
			rows[i][j] = next
			next++
		}
	}
	return rows
}

func (p pipeline) run(ctx context.Context, log *zap.Logger) (*report, error) {
	dev, err := device.Open(ctx, &device.Config{Name: "vecmem", Pages: p.pages})
	if err != nil {
		return nil, fmt.Errorf("open device: %w", err)
	}
	defer dev.Close(ctx)

	q := queue.New(&queue.Config{Name: "pipeline", Workers: p.workers})
	defer q.Close()

	res := memory.NewTrackingResource(dev.Resource())
	host := memory.NewHostResource()
	c := transfer.New(transfer.WithQueue(q), transfer.WithLogger(log))

	input := p.rows()
	src, err := data.PinJagged(host, input)
	if err != nil {
		return nil, fmt.Errorf("pin input: %w", err)
	}
	defer src.Close()

	typ := data.Fixed
	if p.resizable {
		typ = data.Resizable
	}
	buf, err := transfer.ToJagged(ctx, c, src.View(), res, host, typ)
	if err != nil {
		return nil, fmt.Errorf("copy to device: %w", err)
	}
	defer buf.Close()
	if err := c.Synchronize(ctx); err != nil {
		return nil, fmt.Errorf("copy to device: %w", err)
	}

	contiguous, err := buf.View().Contiguous()
	if err != nil {
		return nil, err
	}

	jv, err := containers.NewJaggedDeviceVector(buf.View())
	if err != nil {
		return nil, fmt.Errorf("device rows: %w", err)
	}
	err = q.Launch(ctx, "linear transform", int(jv.Size()), func(i int) error {
		row := jv.Row(vecmem.SizeType(i))
		for j := vecmem.SizeType(0); j < row.Size(); j++ {
			x := row.Index(j)
			*x = p.scale**x + p.offset
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("launch: %w", err)
	}

	output, err := transfer.ToSlices(ctx, c, buf.View())
	if err != nil {
		return nil, fmt.Errorf("copy to host: %w", err)
	}

	log.Debug("pipeline finished",
		zap.Stringer("device", dev),
		zap.Int("rows", len(output)),
		zap.Bool("contiguous", contiguous))

	return &report{
		device:     dev.String(),
		input:      input,
		output:     output,
		stats:      res.Stats(),
		contiguous: contiguous,
	}, nil
}

func formatRows(rows [][]float32) string {
	var b strings.Builder
	for i, r := range rows {
		fmt.Fprintf(&b, "  [%d] %v\n", i, r)
	}
	return b.String()
}
