// Package device provides accelerator memory spaces backed by wazero.
//
// A Device owns one WebAssembly linear memory whose minimum and maximum page
// counts are equal, so the memory never grows and byte views handed out by
// Read stay valid for the lifetime of the device. Addresses are offsets into
// that linear memory; the first Reserve bytes are never allocated, which keeps
// address 0 free to mean null.
//
// # Usage
//
//	dev, err := device.Open(ctx, &device.Config{Name: "sim0", Pages: 64})
//	if err != nil {
//	    return err
//	}
//	defer dev.Close(ctx)
//
//	ptr, err := dev.Resource().Allocate(1024, 8)
//
// Device memory is tagged vecmem.SpaceDevice. Host code may still read it
// through Memory, which is how the copy engine and kernels reach it.
package device
