// Package visibility computes the effective layers of every node in a forest.
//
// Each node declares either Inherit, deferring to its nearest ancestor, or an
// Explicit set of layers. The Propagator resolves those declarations into a
// computed set per node and caches it in a host-owned Store.
//
// # Passes
//
// A pass starts from the nodes a ChangeFeed reports as possibly stale: nodes
// whose declared value changed or whose parent changed. Each is re-resolved
// and, only when its computed set actually changes, the new value is pushed
// down to its children. Descent stops at every node whose computed set is
// already correct, so the work done is bounded by the frontier of real change.
//
//	p := visibility.NewPropagator(world, world, visibility.Config{})
//	stats := p.Update(world)
//
// # Soft failures
//
// Lookups that fail during a pass (a vanished node, a dangling parent) are
// not errors. The affected branch is skipped and counted in Stats.Missing; a
// later pass converges once the host reports the node as stale again.
//
// # Preconditions
//
// The hierarchy must be acyclic. Keeping it so is the host's job, since it
// owns the edges; the propagator does not re-validate it on every pass.
// Config.MaxVisits bounds the work of a pass when a host cannot guarantee
// well-formed child lists.
//
// A pass needs exclusive access to the computed values it writes. Passes over
// the same Store must not overlap.
package visibility
