package bvh

import "errors"

var (
	ErrEmptyInput         = errors.New("bvh: cannot build BVH from zero objects")
	ErrDegenerateGeometry = errors.New("bvh: primitive has a degenerate bounding box")
	ErrInvalidID          = errors.New("bvh: invalid primitive id")
	ErrInvalidOptions     = errors.New("bvh: invalid build options")
	ErrCapacity           = errors.New("bvh: node count exceeds buffer capacity")
	ErrTruncatedBuffer    = errors.New("bvh: buffer length is not a multiple of the record size")
	ErrMalformedLinks     = errors.New("bvh: malformed hit/miss links")
)
