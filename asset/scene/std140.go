package scene

import (
	"encoding/binary"
	"math"

	"github.com/achilleasa/spheretrace/types"
)

// Helpers for packing values into std140 uniform block records. All GPU
// buffers are little endian.

func putInt32(buf []byte, offset int, v int32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], uint32(v))
}

func putFloat32(buf []byte, offset int, v float32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], math.Float32bits(v))
}

// Vec3 values occupy a full 16-byte slot; the trailing 4 bytes are left
// untouched so callers can store a scalar there.
func putVec3(buf []byte, offset int, v types.Vec3) {
	putFloat32(buf, offset, v[0])
	putFloat32(buf, offset+4, v[1])
	putFloat32(buf, offset+8, v[2])
}

func getInt32(buf []byte, offset int) int32 {
	return int32(binary.LittleEndian.Uint32(buf[offset : offset+4]))
}

func getFloat32(buf []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset : offset+4]))
}

func getVec3(buf []byte, offset int) types.Vec3 {
	return types.Vec3{getFloat32(buf, offset), getFloat32(buf, offset+4), getFloat32(buf, offset+8)}
}
