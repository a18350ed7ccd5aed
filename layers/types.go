package layers

import "fmt"

// Layer identifies a rendering layer.
type Layer uint

const (
	// BlockBits is the number of layers covered by one storage block.
	BlockBits = 64

	// InlineBlocks is the number of blocks stored inside a Set without
	// allocating.
	InlineBlocks = 1

	// InlineLayers is the number of layers Inline can construct.
	InlineLayers = InlineBlocks * BlockBits
)

// DefaultLayers is the set an entity belongs to when it declares nothing.
var DefaultLayers = Inline(0)

// locate returns the block index and bit mask for layer n.
func locate(n Layer) (int, uint64) {
	return int(n / BlockBits), 1 << (n % BlockBits)
}

// RangeError reports a layer that cannot be represented without growing the
// set, in a context where growth is not allowed.
type RangeError struct {
	Layer Layer
	Limit Layer
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("layer %d is out of bounds for inline construction (limit %d)", e.Layer, e.Limit)
}
