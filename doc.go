// Package vecmem moves variable-length collections between host memory and
// accelerator memory spaces, and exposes that data through allocation-free
// containers usable from kernel code.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	vecmem/              Root package with Space, Ptr, Memory and Resource
//	├── memory/          Host and shared memory spaces, host/contiguous/tracking resources
//	├── device/          Device memory spaces backed by wazero linear memory
//	├── data/            Views, buffers and the jagged layout builder
//	├── transfer/        Copy engine (setup, copy, jagged copy, async via queue)
//	├── queue/           Ordered work queue and kernel launch
//	├── containers/      Device vectors, static vectors and host helpers
//	└── errors/          Structured error types
//
// # Quick Start
//
// Move a jagged collection to a device, run a kernel on it and read it back:
//
//	host := memory.NewHostResource()
//	dev, err := device.Open(ctx, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close(ctx)
//
//	rows := containers.NewJaggedVector[int32](host)
//	rows.AppendRow(1, 2, 3)
//	rows.AppendRow(4)
//
//	src, err := rows.Data(host)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer src.Close()
//
//	copier := transfer.New()
//	buf, err := transfer.ToJagged(ctx, copier, src.View(), dev.Resource(), host, data.Fixed)
//
// # Memory Model
//
// Every memory space is address based. A Ptr is a plain integer address inside one
// Memory, so a View is ordinary data that stays valid when it is copied to another
// space, and arrays of row views can themselves be transferred like payload.
//
// Device memory has a fixed size; allocations never grow it. Buffers never grow
// their backing storage either: exceeding capacity is always an error.
//
// # Thread Safety
//
// Memory implementations and the work queue are safe for concurrent use.
// DeviceVector.PushBack and EmplaceBack are safe for concurrent callers; all other
// container mutators must be serialized by the caller. Views do not own memory and
// are only valid while the buffer they were taken from is open.
package vecmem
