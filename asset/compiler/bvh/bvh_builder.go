package bvh

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/achilleasa/spheretrace/asset/scene"
	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/types"
)

// The strategy used for selecting the axis along which a span of items is
// sorted before being split at the median.
type AxisPolicy uint8

const (
	// Split along the axis with the greatest extent of the span bbox.
	LongestAxis AxisPolicy = iota

	// Split along an axis picked uniformly at random using Options.Rand.
	RandomAxis
)

func (p AxisPolicy) String() string {
	switch p {
	case LongestAxis:
		return "longest"
	case RandomAxis:
		return "random"
	}
	return "unknown"
}

// Parse an axis policy name.
func ParseAxisPolicy(name string) (AxisPolicy, error) {
	switch name {
	case "longest":
		return LongestAxis, nil
	case "random":
		return RandomAxis, nil
	}
	return LongestAxis, fmt.Errorf("%w: unknown axis policy %q", ErrInvalidOptions, name)
}

type Options struct {
	// The axis selection policy.
	Axis AxisPolicy

	// The random source for RandomAxis. It is required when using RandomAxis
	// and ignored otherwise.
	Rand *rand.Rand

	// Spans with at least this many items build their two halves in
	// parallel. A value <= 0 disables parallel builds. RandomAxis builds are
	// always sequential so that the random draws happen in a fixed order.
	ParallelThreshold int
}

// The default build options: longest axis splits and parallel builds for
// spans with at least 1024 items.
func DefaultOptions() Options {
	return Options{
		Axis:              LongestAxis,
		ParallelThreshold: 1024,
	}
}

// An item together with its cached bounding box.
type entry struct {
	item scene.Boundable
	bbox types.AABB
}

type builder struct {
	logger log.Logger

	opts Options

	// Sorted in place while partitioning; the final order is the leaf order.
	entries []entry
}

// Construct a BVH from a set of boundable items.
//
// Each span of items is sorted by the min bound of the selected axis and
// split at its median into two balanced halves until a single item remains.
// Single items always become leaves so a tree over N items has exactly
// 2N-1 nodes. The input slice is not modified.
//
// Build fails with ErrEmptyInput if no items are supplied, with
// ErrDegenerateGeometry if any bbox has a NaN or infinite bound and with
// ErrInvalidID if item ids are negative or not unique.
func Build(items []scene.Boundable, opts Options) (*Tree, error) {
	if len(items) == 0 {
		return nil, ErrEmptyInput
	}
	if opts.Axis == RandomAxis && opts.Rand == nil {
		return nil, fmt.Errorf("%w: random axis policy requires a random source", ErrInvalidOptions)
	}
	if opts.Axis > RandomAxis {
		return nil, fmt.Errorf("%w: unknown axis policy %d", ErrInvalidOptions, opts.Axis)
	}

	b := &builder{
		logger:  log.New("bvh builder"),
		opts:    opts,
		entries: make([]entry, len(items)),
	}

	seenIds := make(map[int32]struct{}, len(items))
	for idx, item := range items {
		id := item.ID()
		if id < 0 {
			return nil, fmt.Errorf("%w: %s at index %d has negative id %d", ErrInvalidID, item.Kind(), idx, id)
		}
		if _, exists := seenIds[id]; exists {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidID, id)
		}
		seenIds[id] = struct{}{}

		bbox := item.BBox()
		if !bbox.IsFinite() {
			return nil, fmt.Errorf("%w: %s %d has bbox %s", ErrDegenerateGeometry, item.Kind(), id, bbox)
		}
		b.entries[idx] = entry{item: item, bbox: bbox}
	}

	start := time.Now()
	tree := &Tree{
		Nodes: b.partition(b.entries, 0),
		Items: make([]scene.Boundable, len(b.entries)),
	}
	for idx, e := range b.entries {
		tree.Items[idx] = e.item
	}
	tree.Stats.BuildTime = time.Since(start)
	tree.collectStats()

	b.logger.Debugf(
		"BVH tree build time: %d ms, axis policy: %s, maxDepth: %d, nodes: %d, leafs: %d",
		tree.Stats.BuildTime.Nanoseconds()/1e6, opts.Axis,
		tree.Stats.MaxDepth, tree.Stats.Nodes, tree.Stats.Leafs,
	)
	return tree, nil
}

// Partition a span of entries and return its nodes; the span root is
// always the first returned node. Offset is the index of the first span
// entry in the builder entry list.
func (b *builder) partition(span []entry, offset int) []Node {
	if len(span) == 1 {
		return []Node{
			{BBox: span[0].bbox, Left: -1, Right: -1, Object: int32(offset)},
		}
	}

	axis := b.selectAxis(span)
	sort.SliceStable(span, func(i, j int) bool {
		return span[i].bbox.Axis(axis).Min < span[j].bbox.Axis(axis).Min
	})

	mid := len(span) / 2
	var left, right []Node
	if b.opts.Axis == LongestAxis && b.opts.ParallelThreshold > 0 && len(span) >= b.opts.ParallelThreshold {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			left = b.partition(span[:mid], offset)
		}()
		right = b.partition(span[mid:], offset+mid)
		wg.Wait()
	} else {
		left = b.partition(span[:mid], offset)
		right = b.partition(span[mid:], offset+mid)
	}

	// Splice child subtrees after the parent and update their child indices
	nodes := make([]Node, 1, 1+len(left)+len(right))
	nodes[0] = Node{
		BBox:   left[0].BBox.Union(right[0].BBox),
		Left:   1,
		Right:  int32(1 + len(left)),
		Object: -1,
	}
	nodes = appendWithOffset(nodes, left, 1)
	nodes = appendWithOffset(nodes, right, int32(1+len(left)))
	return nodes
}

// Pick the split axis for a span according to the configured policy.
func (b *builder) selectAxis(span []entry) int {
	if b.opts.Axis == RandomAxis {
		return b.opts.Rand.Intn(3)
	}

	bbox := types.EmptyAABB
	for _, e := range span {
		bbox = bbox.Union(e.bbox)
	}
	return bbox.LongestAxis()
}

func appendWithOffset(dst, src []Node, offset int32) []Node {
	for _, node := range src {
		node.offsetChildNodes(offset)
		dst = append(dst, node)
	}
	return dst
}
