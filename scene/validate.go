package scene

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bibin-skaria/vislayers/internal/errors"
	"github.com/bibin-skaria/vislayers/visibility"
)

// Validate checks the hierarchy for dangling edges, parent/child lists that
// disagree, and cycles. It returns nil for a well-formed forest.
func (w *World) Validate() error {
	var problems []string

	for _, id := range w.Nodes() {
		node := w.nodes[id]
		if node.HasParent {
			parent, ok := w.nodes[node.Parent]
			switch {
			case !ok:
				problems = append(problems, fmt.Sprintf("node %s has non-existent parent %d", node.Name, node.Parent))
			case !slices.Contains(parent.Children, id):
				problems = append(problems, fmt.Sprintf("node %s is missing from the children of %s", node.Name, parent.Name))
			}
		}
		for _, childID := range node.Children {
			child, ok := w.nodes[childID]
			switch {
			case !ok:
				problems = append(problems, fmt.Sprintf("node %s has non-existent child %d", node.Name, childID))
			case !child.HasParent || child.Parent != id:
				problems = append(problems, fmt.Sprintf("node %s lists %s as a child but is not its parent", node.Name, child.Name))
			}
		}
	}

	if w.HasCycles() {
		problems = append(problems, "hierarchy contains cycles")
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New().
		Category(errors.CategoryHierarchy).
		Operation("validate").
		Message(strings.Join(problems, "; ")).
		Build()
}

// HasCycles reports whether following child edges can lead back to a node.
func (w *World) HasCycles() bool {
	visited := make(map[visibility.NodeID]bool)
	onStack := make(map[visibility.NodeID]bool)

	for _, id := range w.Nodes() {
		if !visited[id] && w.hasCycleDFS(id, visited, onStack) {
			return true
		}
	}
	return false
}

func (w *World) hasCycleDFS(id visibility.NodeID, visited, onStack map[visibility.NodeID]bool) bool {
	visited[id] = true
	onStack[id] = true

	for _, child := range w.Children(id) {
		if _, ok := w.nodes[child]; !ok {
			continue
		}
		if onStack[child] {
			return true
		}
		if !visited[child] && w.hasCycleDFS(child, visited, onStack) {
			return true
		}
	}

	onStack[id] = false
	return false
}

// Walk returns every node reachable from the roots, parents before their
// children.
func (w *World) Walk() []visibility.NodeID {
	var order []visibility.NodeID
	seen := make(map[visibility.NodeID]bool)
	queue := w.Roots()
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if seen[current] {
			continue
		}
		if _, ok := w.nodes[current]; !ok {
			continue
		}
		seen[current] = true
		order = append(order, current)
		queue = append(queue, w.Children(current)...)
	}
	return order
}
