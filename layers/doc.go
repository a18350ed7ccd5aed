// Package layers provides a compact, growable bitset of numbered layers.
//
// A Set records membership in layers identified by non-negative integers. It is
// used to decide which entities a view should consider: an entity and a view
// are matched when their sets intersect.
//
//	view := layers.FromLayers(0, 3)
//	entity := layers.Single(3)
//
//	if view.Intersects(entity) {
//		// entity is visible to view
//	}
//
// # Storage
//
// Membership is stored in 64-bit blocks, block i covering layers [64i, 64i+63].
// The first InlineBlocks blocks live inside the Set value itself, so sets that
// only use low layer numbers never allocate. Higher layers spill into an
// overflow slice that grows on demand.
//
// # Canonical form
//
// A Set never keeps a trailing all-zero block beyond the inline blocks. Every
// mutation and every algebra operation restores this, which is what lets Equal
// and Compare work structurally on the block sequence.
//
// # Defaults
//
// Default returns the set containing layer 0, which is what an entity without
// explicit layers belongs to. Empty returns the set with no layers; an entity
// holding it matches nothing, not even another empty set.
//
// # Thread Safety
//
// Set is a value type. Copies never share mutable state, so a Set may be read
// from several goroutines at once. Mutating a single Set value concurrently
// requires external synchronization.
package layers
