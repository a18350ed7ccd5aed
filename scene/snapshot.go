package scene

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v2"

	"github.com/bibin-skaria/vislayers/layers"
	"github.com/bibin-skaria/vislayers/visibility"
)

// NodeState is the externally visible state of one node.
type NodeState struct {
	Name     string         `yaml:"name"`
	Parent   string         `yaml:"parent,omitempty"`
	Declared string         `yaml:"declared"`
	Computed []layers.Layer `yaml:"computed"`
}

// Snapshot returns the state of every node, parents before children. Nodes
// unreachable from a root follow in id order.
func (w *World) Snapshot() []NodeState {
	order := w.Walk()
	seen := make(map[visibility.NodeID]bool, len(order))
	for _, id := range order {
		seen[id] = true
	}
	for _, id := range w.Nodes() {
		if !seen[id] {
			order = append(order, id)
		}
	}

	states := make([]NodeState, 0, len(order))
	for _, id := range order {
		node := w.nodes[id]
		state := NodeState{
			Name:     node.Name,
			Declared: node.Declared.String(),
			Computed: node.Computed.Layers(),
		}
		if node.HasParent {
			state.Parent = w.Name(node.Parent)
		}
		if state.Computed == nil {
			state.Computed = []layers.Layer{}
		}
		states = append(states, state)
	}
	return states
}

// WriteYAML writes states as a YAML document.
func WriteYAML(out io.Writer, states []NodeState) error {
	data, err := yaml.Marshal(states)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// WriteTable writes states as an aligned text table.
func WriteTable(out io.Writer, states []NodeState) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NODE\tPARENT\tDECLARED\tCOMPUTED")
	for _, s := range states {
		parent := s.Parent
		if parent == "" {
			parent = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\n", s.Name, parent, s.Declared, s.Computed)
	}
	return tw.Flush()
}
