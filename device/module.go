package device

import "bytes"

// memoryModule encodes a module that exports a single memory named "memory"
// with min == max == pages.
func memoryModule(pages uint32) []byte {
	var limits bytes.Buffer
	limits.WriteByte(0x01) // count
	limits.WriteByte(0x01) // flags: max present
	writeLEB128u(&limits, pages)
	writeLEB128u(&limits, pages)

	var exports bytes.Buffer
	exports.WriteByte(0x01) // count
	writeLEB128u(&exports, uint32(len("memory")))
	exports.WriteString("memory")
	exports.WriteByte(0x02) // kind: memory
	exports.WriteByte(0x00) // index

	var out bytes.Buffer
	out.Write([]byte{0x00, 0x61, 0x73, 0x6d}) // magic
	out.Write([]byte{0x01, 0x00, 0x00, 0x00}) // version
	writeSection(&out, 0x05, limits.Bytes())
	writeSection(&out, 0x07, exports.Bytes())
	return out.Bytes()
}

func writeSection(w *bytes.Buffer, id byte, payload []byte) {
	w.WriteByte(id)
	writeLEB128u(w, uint32(len(payload)))
	w.Write(payload)
}

// writeLEB128u writes an unsigned LEB128 value
func writeLEB128u(w *bytes.Buffer, v uint32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.WriteByte(b)
		if v == 0 {
			break
		}
	}
}
