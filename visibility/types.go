package visibility

import (
	"github.com/bibin-skaria/vislayers/layers"
)

// NodeID identifies a node in the host's hierarchy.
type NodeID uint64

// VisibleLayers is the layer policy a node declares for itself.
//
// The zero value inherits from the parent.
type VisibleLayers struct {
	explicit bool
	layers   layers.Set
}

// Inherit returns a declaration that defers to the parent's computed layers.
func Inherit() VisibleLayers {
	return VisibleLayers{}
}

// Explicit returns a declaration that uses s regardless of ancestors.
func Explicit(s layers.Set) VisibleLayers {
	return VisibleLayers{explicit: true, layers: s.Clone()}
}

// IsInherited reports whether the declaration defers to the parent.
func (v VisibleLayers) IsInherited() bool {
	return !v.explicit
}

// Set returns the explicit layers and true, or false for Inherit.
func (v VisibleLayers) Set() (layers.Set, bool) {
	if !v.explicit {
		return layers.Set{}, false
	}
	return v.layers.Clone(), true
}

// Resolve returns the computed layers for a node with this declaration whose
// parent resolves to inherited.
func (v VisibleLayers) Resolve(inherited layers.Set) layers.Set {
	if v.explicit {
		return v.layers.Clone()
	}
	return inherited.Clone()
}

// Equal reports whether both declarations are the same policy.
func (v VisibleLayers) Equal(other VisibleLayers) bool {
	if v.explicit != other.explicit {
		return false
	}
	return !v.explicit || v.layers.Equal(other.layers)
}

func (v VisibleLayers) String() string {
	if !v.explicit {
		return "Inherited"
	}
	return "Explicit(" + v.layers.String() + ")"
}

// Store gives access to the layer records of tracked nodes.
//
// Layers reports ok=false for nodes that do not carry both a declared and a
// computed value.
type Store interface {
	Layers(id NodeID) (declared VisibleLayers, computed layers.Set, ok bool)
	SetComputed(id NodeID, computed layers.Set)
}

// Hierarchy resolves the tree edges between nodes.
type Hierarchy interface {
	Parent(id NodeID) (NodeID, bool)
	Children(id NodeID) []NodeID
}

// ChangeFeed reports nodes whose declared value or parent changed since the
// last drain.
type ChangeFeed interface {
	DrainStale() []NodeID
}

// ComputedOrDefault returns the computed layers of id, or the default set
// {0} when the store has no record for it.
func ComputedOrDefault(store Store, id NodeID) layers.Set {
	if _, computed, ok := store.Layers(id); ok {
		return computed
	}
	return layers.Default()
}

// Stats describes a single propagation pass.
type Stats struct {
	// Stale is the number of nodes the pass started from.
	Stale int `json:"stale" yaml:"stale"`
	// Visited counts nodes whose declaration was resolved.
	Visited int `json:"visited" yaml:"visited"`
	// Updated counts nodes whose computed layers changed.
	Updated int `json:"updated" yaml:"updated"`
	// Pruned counts visited nodes that were already up to date.
	Pruned int `json:"pruned" yaml:"pruned"`
	// Missing counts lookups skipped because a node had no record.
	Missing int `json:"missing" yaml:"missing"`
	// Truncated is set when the pass stopped at Config.MaxVisits.
	Truncated bool `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}
