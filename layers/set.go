package layers

import (
	"cmp"
	"fmt"
	"iter"
	"math/bits"
	"slices"
	"strings"
)

// Set is a set of layers.
//
// The zero value is the empty set. Use Default for the set containing only
// layer 0.
type Set struct {
	head [InlineBlocks]uint64
	// tail holds blocks InlineBlocks and up. Once a Set is handed out its
	// tail is never mutated in place, and it never ends in a zero block.
	tail []uint64
}

// Empty returns a set that belongs to no layers.
//
// This is distinct from Default, which belongs to layer 0.
func Empty() Set {
	return Set{}
}

// Default returns the set containing layer 0.
func Default() Set {
	return Inline(0)
}

// Inline returns the set containing layer n without any heap allocation.
//
// Inline panics when n does not fit in the inline blocks. Use Single or
// FromLayers for arbitrary layer numbers.
func Inline(n Layer) Set {
	if n >= InlineLayers {
		panic(&RangeError{Layer: n, Limit: InlineLayers})
	}
	var s Set
	i, bit := locate(n)
	s.head[i] = bit
	return s
}

// Single returns the set containing exactly layer n.
func Single(n Layer) Set {
	var s Set
	s.Add(n)
	return s
}

// FromLayers returns the set containing every given layer. Order and
// duplicates do not matter.
func FromLayers(ls ...Layer) Set {
	var s Set
	for _, n := range ls {
		s.insert(n)
	}
	return s
}

// FromSeq returns the set containing every layer produced by seq.
func FromSeq(seq iter.Seq[Layer]) Set {
	var s Set
	for n := range seq {
		s.insert(n)
	}
	return s
}

// Add adds layer n to the set, growing the block storage if needed.
func (s *Set) Add(n Layer) {
	i, bit := locate(n)
	if i < InlineBlocks {
		s.head[i] |= bit
		return
	}
	j := i - InlineBlocks
	if j < len(s.tail) && s.tail[j]&bit != 0 {
		return
	}
	tail := make([]uint64, max(len(s.tail), j+1))
	copy(tail, s.tail)
	tail[j] |= bit
	s.tail = tail
}

// insert adds layer n in place. It is only valid while s.tail is owned by
// s alone, as in the constructors.
func (s *Set) insert(n Layer) {
	i, bit := locate(n)
	if i < InlineBlocks {
		s.head[i] |= bit
		return
	}
	j := i - InlineBlocks
	if j >= len(s.tail) {
		s.tail = append(s.tail, make([]uint64, j+1-len(s.tail))...)
	}
	s.tail[j] |= bit
}

// Remove removes layer n from the set. Removing a layer the set does not hold
// is a no-op.
func (s *Set) Remove(n Layer) {
	i, bit := locate(n)
	if i < InlineBlocks {
		s.head[i] &^= bit
		return
	}
	j := i - InlineBlocks
	if j >= len(s.tail) || s.tail[j]&bit == 0 {
		return
	}
	tail := slices.Clone(s.tail)
	tail[j] &^= bit
	// Dropping trailing zero blocks is required for Equal and Compare to be
	// correct, not just a space saving.
	s.tail = trim(tail)
}

// With returns a copy of the set with layer n added.
func (s Set) With(n Layer) Set {
	s.Add(n)
	return s
}

// Without returns a copy of the set with layer n removed.
func (s Set) Without(n Layer) Set {
	s.Remove(n)
	return s
}

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	s.tail = slices.Clone(s.tail)
	return s
}

// Contains reports whether layer n is in the set.
func (s Set) Contains(n Layer) bool {
	i, bit := locate(n)
	return s.block(i)&bit != 0
}

// IsEmpty reports whether the set holds no layers.
func (s Set) IsEmpty() bool {
	// A non-empty tail always ends in a non-zero block.
	return s.head == [InlineBlocks]uint64{} && len(s.tail) == 0
}

// Len returns the number of layers in the set.
func (s Set) Len() int {
	n := 0
	for _, b := range s.head {
		n += bits.OnesCount64(b)
	}
	for _, b := range s.tail {
		n += bits.OnesCount64(b)
	}
	return n
}

// BlockCount returns the number of storage blocks the set uses.
func (s Set) BlockCount() int {
	return InlineBlocks + len(s.tail)
}

// Bits returns a copy of the set's blocks, lowest layers first.
func (s Set) Bits() []uint64 {
	out := make([]uint64, 0, s.BlockCount())
	out = append(out, s.head[:]...)
	return append(out, s.tail...)
}

// All returns the layers in the set in ascending order.
//
// The sequence can be ranged over any number of times.
func (s Set) All() iter.Seq[Layer] {
	return func(yield func(Layer) bool) {
		for i := range s.BlockCount() {
			b := s.block(i)
			base := Layer(i) * BlockBits
			for b != 0 {
				if !yield(base + Layer(bits.TrailingZeros64(b))) {
					return
				}
				// Clear the lowest set bit; shifting would overflow on bit 63.
				b &= b - 1
			}
		}
	}
}

// Layers returns the layers in the set in ascending order.
func (s Set) Layers() []Layer {
	return slices.Collect(s.All())
}

// Equal reports whether both sets hold the same layers.
func (s Set) Equal(other Set) bool {
	return s.head == other.head && slices.Equal(s.tail, other.tail)
}

// Compare orders sets lexicographically by their blocks. It returns -1, 0 or
// +1.
func Compare(a, b Set) int {
	for i := range InlineBlocks {
		if c := cmp.Compare(a.head[i], b.head[i]); c != 0 {
			return c
		}
	}
	return slices.Compare(a.tail, b.tail)
}

func (s Set) String() string {
	var sb strings.Builder
	sb.WriteString("Set[")
	first := true
	for n := range s.All() {
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		fmt.Fprintf(&sb, "%d", n)
	}
	sb.WriteByte(']')
	return sb.String()
}

// block returns block i, or 0 when the set does not store it.
func (s Set) block(i int) uint64 {
	if i < InlineBlocks {
		return s.head[i]
	}
	if j := i - InlineBlocks; j < len(s.tail) {
		return s.tail[j]
	}
	return 0
}

// trim drops trailing zero blocks. An empty result is returned as nil so that
// sets which shrink back to their inline blocks hold no heap storage.
func trim(tail []uint64) []uint64 {
	for len(tail) > 0 && tail[len(tail)-1] == 0 {
		tail = tail[:len(tail)-1]
	}
	if len(tail) == 0 {
		return nil
	}
	return tail
}
