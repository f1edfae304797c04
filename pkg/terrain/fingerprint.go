package terrain

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes every buffer of m. Identical buffers always produce the
// same value, so it is used to compare builds without keeping both copies.
func Fingerprint(m *MeshBuffers) uint64 {
	if m == nil {
		return 0
	}
	d := xxhash.New()
	buf := make([]byte, 0, 64)

	writeLen := func(n int) {
		buf = binary.LittleEndian.AppendUint64(buf[:0], uint64(n))
		_, _ = d.Write(buf)
	}
	writeFloats := func(fs ...float32) {
		buf = buf[:0]
		for _, f := range fs {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
		_, _ = d.Write(buf)
	}

	writeLen(len(m.Vertices))
	for _, v := range m.Vertices {
		writeFloats(v[0], v[1], v[2])
	}
	writeLen(len(m.Indices))
	for _, i := range m.Indices {
		buf = binary.LittleEndian.AppendUint32(buf[:0], i)
		_, _ = d.Write(buf)
	}
	writeLen(len(m.Normals))
	for _, v := range m.Normals {
		writeFloats(v[0], v[1], v[2])
	}
	writeLen(len(m.Tangents))
	for _, v := range m.Tangents {
		writeFloats(v[0], v[1], v[2])
	}
	writeLen(len(m.UVs))
	for _, v := range m.UVs {
		writeFloats(v[0], v[1])
	}
	writeLen(len(m.Colors))
	for _, c := range m.Colors {
		_, _ = d.Write([]byte{c.R, c.G, c.B, c.A})
	}
	return d.Sum64()
}
