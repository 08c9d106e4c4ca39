package bvh

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/achilleasa/spheretrace/types"
)

// Size of an encoded node record.
const RecordSize = 64

// Node records use the following std140-compatible layout:
//
//	 0 int32 is_leaf (0 = internal, 1 = leaf)
//	 4 int32 object_index (leaf only)
//	 8 int32 hit_id
//	12 int32 miss_id
//	16 f32   x.min  20 f32 x.max  (24-31 padding)
//	32 f32   y.min  36 f32 y.max  (40-47 padding)
//	48 f32   z.min  52 f32 z.max  (56-63 padding)
//
// Each interval occupies its own 16-byte slot so the record can be declared
// as a struct of ints and vec4s on the shader side.
const (
	offIsLeaf      = 0
	offObjectIndex = 4
	offHitID       = 8
	offMissID      = 12
	offBBoxX       = 16
	offBBoxY       = 32
	offBBoxZ       = 48
)

// Get the number of records that fit in a buffer of the given size.
func Capacity(bufLen int) int {
	return bufLen / RecordSize
}

// Encode linked nodes into buf. Node i is written at byte offset i*RecordSize.
// The capacity of buf is checked before anything is written; if the nodes do
// not fit, Encode returns ErrCapacity and leaves buf untouched.
func Encode(nodes []LinkedNode, buf []byte) error {
	if capacity := Capacity(len(buf)); len(nodes) > capacity {
		return fmt.Errorf("%w: need %d records, buffer holds %d", ErrCapacity, len(nodes), capacity)
	}

	for idx := range nodes {
		encodeRecord(&nodes[idx], buf[idx*RecordSize:(idx+1)*RecordSize])
	}
	return nil
}

// Encode linked nodes into a newly allocated buffer of exactly the required size.
func Marshal(nodes []LinkedNode) []byte {
	buf := make([]byte, len(nodes)*RecordSize)
	for idx := range nodes {
		encodeRecord(&nodes[idx], buf[idx*RecordSize:(idx+1)*RecordSize])
	}
	return buf
}

// Decode node records written by Encode. Child ids are recovered from the
// links: the left child is the hit target and the right child is the miss
// target of the left child.
func Decode(buf []byte) ([]LinkedNode, error) {
	if len(buf)%RecordSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncatedBuffer, len(buf))
	}

	nodes := make([]LinkedNode, len(buf)/RecordSize)
	for idx := range nodes {
		rec := buf[idx*RecordSize : (idx+1)*RecordSize]
		node := &nodes[idx]
		node.ID = int32(idx)
		node.IsLeaf = getInt32(rec, offIsLeaf) != 0
		node.ObjectIndex = getInt32(rec, offObjectIndex)
		node.HitID = getInt32(rec, offHitID)
		node.MissID = getInt32(rec, offMissID)
		node.BBox = types.AABB{
			X: getInterval(rec, offBBoxX),
			Y: getInterval(rec, offBBoxY),
			Z: getInterval(rec, offBBoxZ),
		}
	}

	for idx := range nodes {
		node := &nodes[idx]
		node.Left, node.Right = -1, -1
		if node.IsLeaf {
			continue
		}
		if node.HitID < 0 || int(node.HitID) >= len(nodes) {
			return nil, fmt.Errorf("%w: internal node %d has hit link %d", ErrMalformedLinks, idx, node.HitID)
		}
		node.Left = node.HitID
		node.Right = nodes[node.Left].MissID
	}
	return nodes, nil
}

func encodeRecord(node *LinkedNode, rec []byte) {
	clear(rec)

	var isLeaf, objectIndex int32 = 0, -1
	if node.IsLeaf {
		isLeaf, objectIndex = 1, node.ObjectIndex
	}
	putInt32(rec, offIsLeaf, isLeaf)
	putInt32(rec, offObjectIndex, objectIndex)
	putInt32(rec, offHitID, node.HitID)
	putInt32(rec, offMissID, node.MissID)
	putInterval(rec, offBBoxX, node.BBox.X)
	putInterval(rec, offBBoxY, node.BBox.Y)
	putInterval(rec, offBBoxZ, node.BBox.Z)
}

func putInt32(buf []byte, offset int, v int32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], uint32(v))
}

func getInt32(buf []byte, offset int) int32 {
	return int32(binary.LittleEndian.Uint32(buf[offset : offset+4]))
}

func putInterval(buf []byte, offset int, iv types.Interval) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], math.Float32bits(iv.Min))
	binary.LittleEndian.PutUint32(buf[offset+4:offset+8], math.Float32bits(iv.Max))
}

func getInterval(buf []byte, offset int) types.Interval {
	return types.Interval{
		Min: math.Float32frombits(binary.LittleEndian.Uint32(buf[offset : offset+4])),
		Max: math.Float32frombits(binary.LittleEndian.Uint32(buf[offset+4 : offset+8])),
	}
}
