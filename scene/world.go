package scene

import (
	"slices"

	"github.com/bibin-skaria/vislayers/internal/errors"
	"github.com/bibin-skaria/vislayers/layers"
	"github.com/bibin-skaria/vislayers/visibility"
)

// World is an in-memory hierarchy of named nodes that carries layer records
// and reports changes to them.
//
// World implements visibility.Store, visibility.Hierarchy and
// visibility.ChangeFeed. It is not safe for concurrent use.
type World struct {
	nodes  map[visibility.NodeID]*Node
	names  map[string]visibility.NodeID
	stale  map[visibility.NodeID]struct{}
	nextID visibility.NodeID
}

// Node is a single entry of a World.
type Node struct {
	ID        visibility.NodeID
	Name      string
	Parent    visibility.NodeID
	HasParent bool
	Children  []visibility.NodeID
	Declared  visibility.VisibleLayers
	Computed  layers.Set
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{
		nodes:  make(map[visibility.NodeID]*Node),
		names:  make(map[string]visibility.NodeID),
		stale:  make(map[visibility.NodeID]struct{}),
		nextID: 1,
	}
}

// Spawn adds a root node that inherits its layers and currently holds the
// default set {0}. The node is reported stale on the next drain.
func (w *World) Spawn(name string) (visibility.NodeID, error) {
	if name == "" {
		return 0, errors.New().
			Category(errors.CategoryScene).
			Operation("spawn").
			Message("node name must not be empty").
			Build()
	}
	if _, exists := w.names[name]; exists {
		return 0, errors.New().
			Category(errors.CategoryScene).
			Operation("spawn").
			Node(name).
			Message("node already exists").
			Build()
	}

	id := w.nextID
	w.nextID++
	w.nodes[id] = &Node{
		ID:       id,
		Name:     name,
		Declared: visibility.Inherit(),
		Computed: layers.Default(),
	}
	w.names[name] = id
	w.markStale(id)
	return id, nil
}

// Despawn removes a node. Edges that point at it from other nodes are left in
// place and resolve to nothing until they are rewritten.
func (w *World) Despawn(id visibility.NodeID) bool {
	node, ok := w.nodes[id]
	if !ok {
		return false
	}
	delete(w.nodes, id)
	delete(w.names, node.Name)
	delete(w.stale, id)
	return true
}

// SetParent makes parent the parent of child and marks child stale.
//
// It refuses edges that would make a node its own ancestor.
func (w *World) SetParent(child, parent visibility.NodeID) error {
	c, ok := w.nodes[child]
	if !ok {
		return w.unknownNode("set_parent", child)
	}
	if _, ok := w.nodes[parent]; !ok {
		return w.unknownNode("set_parent", parent)
	}
	if c.HasParent && c.Parent == parent {
		return nil
	}
	if w.isAncestor(child, parent) {
		return errors.New().
			Category(errors.CategoryHierarchy).
			Operation("set_parent").
			Node(c.Name).
			Messagef("parenting under %s would create a cycle", w.Name(parent)).
			Build()
	}

	w.detach(c)
	c.Parent = parent
	c.HasParent = true
	p := w.nodes[parent]
	p.Children = append(p.Children, child)
	w.markStale(child)
	return nil
}

// RemoveParent turns child into a root and marks it stale.
func (w *World) RemoveParent(child visibility.NodeID) error {
	c, ok := w.nodes[child]
	if !ok {
		return w.unknownNode("remove_parent", child)
	}
	if !c.HasParent {
		return nil
	}
	w.detach(c)
	w.markStale(child)
	return nil
}

// SetVisibleLayers replaces the declared layers of id. The node is marked
// stale only when the declaration actually changes.
func (w *World) SetVisibleLayers(id visibility.NodeID, declared visibility.VisibleLayers) error {
	node, ok := w.nodes[id]
	if !ok {
		return w.unknownNode("set_layers", id)
	}
	if node.Declared.Equal(declared) {
		return nil
	}
	node.Declared = declared
	w.markStale(id)
	return nil
}

// Layers implements visibility.Store.
func (w *World) Layers(id visibility.NodeID) (visibility.VisibleLayers, layers.Set, bool) {
	node, ok := w.nodes[id]
	if !ok {
		return visibility.VisibleLayers{}, layers.Set{}, false
	}
	return node.Declared, node.Computed, true
}

// SetComputed implements visibility.Store. Unknown ids are ignored.
func (w *World) SetComputed(id visibility.NodeID, computed layers.Set) {
	if node, ok := w.nodes[id]; ok {
		node.Computed = computed
	}
}

// Parent implements visibility.Hierarchy.
func (w *World) Parent(id visibility.NodeID) (visibility.NodeID, bool) {
	node, ok := w.nodes[id]
	if !ok || !node.HasParent {
		return 0, false
	}
	return node.Parent, true
}

// Children implements visibility.Hierarchy.
func (w *World) Children(id visibility.NodeID) []visibility.NodeID {
	if node, ok := w.nodes[id]; ok {
		return node.Children
	}
	return nil
}

// DrainStale implements visibility.ChangeFeed. Ids are returned in ascending
// order.
func (w *World) DrainStale() []visibility.NodeID {
	if len(w.stale) == 0 {
		return nil
	}
	ids := make([]visibility.NodeID, 0, len(w.stale))
	for id := range w.stale {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	clear(w.stale)
	return ids
}

// Computed returns the computed layers of id, or the default set when the
// node does not exist.
func (w *World) Computed(id visibility.NodeID) layers.Set {
	return visibility.ComputedOrDefault(w, id)
}

// Lookup returns the id of the named node.
func (w *World) Lookup(name string) (visibility.NodeID, bool) {
	id, ok := w.names[name]
	return id, ok
}

// Name returns the name of id, or an empty string for unknown nodes.
func (w *World) Name(id visibility.NodeID) string {
	if node, ok := w.nodes[id]; ok {
		return node.Name
	}
	return ""
}

// Node returns a copy of the node record for id.
func (w *World) Node(id visibility.NodeID) (Node, bool) {
	node, ok := w.nodes[id]
	if !ok {
		return Node{}, false
	}
	out := *node
	out.Children = slices.Clone(node.Children)
	return out, true
}

// Nodes returns all node ids in ascending order.
func (w *World) Nodes() []visibility.NodeID {
	ids := make([]visibility.NodeID, 0, len(w.nodes))
	for id := range w.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Roots returns the ids of nodes without a parent in ascending order.
func (w *World) Roots() []visibility.NodeID {
	var roots []visibility.NodeID
	for _, id := range w.Nodes() {
		if !w.nodes[id].HasParent {
			roots = append(roots, id)
		}
	}
	return roots
}

// Len returns the number of nodes.
func (w *World) Len() int {
	return len(w.nodes)
}

func (w *World) markStale(id visibility.NodeID) {
	w.stale[id] = struct{}{}
}

// detach removes c from its current parent's children.
func (w *World) detach(c *Node) {
	if !c.HasParent {
		return
	}
	if p, ok := w.nodes[c.Parent]; ok {
		p.Children = slices.DeleteFunc(p.Children, func(id visibility.NodeID) bool {
			return id == c.ID
		})
	}
	c.Parent = 0
	c.HasParent = false
}

// isAncestor reports whether ancestor is candidate or lies on the parent
// chain above it.
func (w *World) isAncestor(ancestor, candidate visibility.NodeID) bool {
	seen := make(map[visibility.NodeID]bool)
	for cur, ok := candidate, true; ok; cur, ok = w.Parent(cur) {
		if cur == ancestor {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
	}
	return false
}

func (w *World) unknownNode(operation string, id visibility.NodeID) error {
	return errors.New().
		Category(errors.CategoryScene).
		Operation(operation).
		Messagef("node %d does not exist", id).
		Build()
}
