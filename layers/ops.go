package layers

// Union returns the layers present in either set (s | other).
func (s Set) Union(other Set) Set {
	// No shrink: OR keeps the non-zero last block of the longer operand.
	return s.combine(other, func(a, b uint64) uint64 { return a | b })
}

// Intersection returns the layers present in both sets (s & other).
func (s Set) Intersection(other Set) Set {
	out := s.combine(other, func(a, b uint64) uint64 { return a & b })
	out.tail = trim(out.tail)
	return out
}

// SymmetricDifference returns the layers present in exactly one of the sets
// (s ^ other).
func (s Set) SymmetricDifference(other Set) Set {
	out := s.combine(other, func(a, b uint64) uint64 { return a ^ b })
	out.tail = trim(out.tail)
	return out
}

// Intersects reports whether the sets share at least one layer.
//
// A set with no layers intersects nothing, including another empty set.
func (s Set) Intersects(other Set) bool {
	// The inline blocks are checked first; two sets that only use low layers,
	// like two copies of the default set, never touch the overflow storage.
	for i := range InlineBlocks {
		if s.head[i]&other.head[i] != 0 {
			return true
		}
	}
	n := min(len(s.tail), len(other.tail))
	for j := 0; j < n; j++ {
		if s.tail[j]&other.tail[j] != 0 {
			return true
		}
	}
	return false
}

// combine applies f block by block, treating a missing block as 0. The result
// has as many blocks as the longer operand and may need trimming when f can
// map non-zero inputs to zero.
func (s Set) combine(other Set, f func(a, b uint64) uint64) Set {
	var out Set
	for i := range InlineBlocks {
		out.head[i] = f(s.head[i], other.head[i])
	}
	n := max(len(s.tail), len(other.tail))
	if n == 0 {
		return out
	}
	out.tail = make([]uint64, n)
	for j := range out.tail {
		var a, b uint64
		if j < len(s.tail) {
			a = s.tail[j]
		}
		if j < len(other.tail) {
			b = other.tail[j]
		}
		out.tail[j] = f(a, b)
	}
	return out
}
