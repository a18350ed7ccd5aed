package scene

import (
	"fmt"

	"gopkg.in/yaml.v2"

	"github.com/bibin-skaria/vislayers/internal/config"
	"github.com/bibin-skaria/vislayers/internal/errors"
	"github.com/bibin-skaria/vislayers/layers"
	"github.com/bibin-skaria/vislayers/visibility"
)

// MaxLayer is the highest layer a scene may name. Sets themselves are
// unbounded; the cap keeps a single entry from allocating without limit.
const MaxLayer layers.Layer = 1<<16 - 1

// File is the YAML description of a scene and the edits to replay on it.
//
//	nodes:
//	  - name: root
//	    layers: [1, 2]
//	  - name: leaf
//	    parent: root
//	steps:
//	  - name: hide leaf
//	    edits:
//	      - node: leaf
//	        layers: []
type File struct {
	Nodes []NodeSpec `yaml:"nodes"`
	Steps []Step     `yaml:"steps,omitempty"`
}

// NodeSpec declares one node. A missing layers key means the node inherits;
// an empty list means it explicitly belongs to no layers.
type NodeSpec struct {
	Name   string          `yaml:"name"`
	Parent string          `yaml:"parent,omitempty"`
	Layers *[]layers.Layer `yaml:"layers,omitempty"`
}

// Step is a batch of edits applied before one propagation pass.
type Step struct {
	Name  string `yaml:"name,omitempty"`
	Edits []Edit `yaml:"edits"`
}

// Edit changes a single node. Exactly one action must be set.
type Edit struct {
	Node    string          `yaml:"node"`
	Layers  *[]layers.Layer `yaml:"layers,omitempty"`
	Inherit bool            `yaml:"inherit,omitempty"`
	Parent  string          `yaml:"parent,omitempty"`
	Detach  bool            `yaml:"detach,omitempty"`
	Despawn bool            `yaml:"despawn,omitempty"`
}

// Load reads and parses a scene file, which may be zstd-compressed.
func Load(path string) (*File, error) {
	data, err := config.ReadSource(path)
	if err != nil {
		return nil, err
	}
	file, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return file, nil
}

// Parse decodes and validates a scene description.
func Parse(data []byte) (*File, error) {
	var file File
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return nil, errors.New().
			Category(errors.CategoryScene).
			Operation("parse").
			Message("invalid scene YAML").
			Cause(err).
			Build()
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// Validate checks names, parent references and edit actions.
func (f *File) Validate() error {
	collector := errors.NewCollector()
	names := make(map[string]bool, len(f.Nodes))

	for i, n := range f.Nodes {
		switch {
		case n.Name == "":
			collector.Add(invalid("validate", "", fmt.Sprintf("node %d has no name", i)))
		case names[n.Name]:
			collector.Add(invalid("validate", n.Name, "duplicate node name"))
		}
		names[n.Name] = true
		if err := checkLayers("validate", n.Name, n.Layers); err != nil {
			collector.Add(err)
		}
	}
	for _, n := range f.Nodes {
		if n.Parent == "" {
			continue
		}
		if !names[n.Parent] {
			collector.Add(invalid("validate", n.Name, fmt.Sprintf("unknown parent %q", n.Parent)))
		}
		if n.Parent == n.Name {
			collector.Add(invalid("validate", n.Name, "node cannot be its own parent"))
		}
	}

	for i, step := range f.Steps {
		for j, e := range step.Edits {
			if e.Node == "" {
				collector.Add(invalid("validate", "", fmt.Sprintf("step %d edit %d has no node", i, j)))
			}
			if got := e.actions(); got != 1 {
				collector.Add(invalid("validate", e.Node,
					fmt.Sprintf("step %d edit %d must set exactly one action, got %d", i, j, got)))
			}
			if err := checkLayers("validate", e.Node, e.Layers); err != nil {
				collector.Add(err)
			}
		}
	}

	return collector.Err()
}

// Build creates a World holding the declared nodes. All nodes are stale, so
// the first propagation pass resolves the whole scene.
func (f *File) Build() (*World, error) {
	w := NewWorld()
	for _, n := range f.Nodes {
		id, err := w.Spawn(n.Name)
		if err != nil {
			return nil, err
		}
		if n.Layers != nil {
			if err := checkLayers("build", n.Name, n.Layers); err != nil {
				return nil, err
			}
			if err := w.SetVisibleLayers(id, visibility.Explicit(layers.FromLayers(*n.Layers...))); err != nil {
				return nil, err
			}
		}
	}
	for _, n := range f.Nodes {
		if n.Parent == "" {
			continue
		}
		child, _ := w.Lookup(n.Name)
		parent, ok := w.Lookup(n.Parent)
		if !ok {
			return nil, invalid("build", n.Name, fmt.Sprintf("unknown parent %q", n.Parent))
		}
		if err := w.SetParent(child, parent); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// ApplyStep applies the edits of step i to w.
func (f *File) ApplyStep(w *World, i int) error {
	if i < 0 || i >= len(f.Steps) {
		return invalid("apply", "", fmt.Sprintf("step %d out of range [0, %d)", i, len(f.Steps)))
	}
	for _, e := range f.Steps[i].Edits {
		if err := e.Apply(w); err != nil {
			return err
		}
	}
	return nil
}

// Apply performs the edit on w.
func (e Edit) Apply(w *World) error {
	id, ok := w.Lookup(e.Node)
	if !ok {
		return invalid("apply", e.Node, "unknown node")
	}

	switch {
	case e.Layers != nil:
		if err := checkLayers("apply", e.Node, e.Layers); err != nil {
			return err
		}
		return w.SetVisibleLayers(id, visibility.Explicit(layers.FromLayers(*e.Layers...)))
	case e.Inherit:
		return w.SetVisibleLayers(id, visibility.Inherit())
	case e.Parent != "":
		parent, ok := w.Lookup(e.Parent)
		if !ok {
			return invalid("apply", e.Node, fmt.Sprintf("unknown parent %q", e.Parent))
		}
		return w.SetParent(id, parent)
	case e.Detach:
		return w.RemoveParent(id)
	case e.Despawn:
		w.Despawn(id)
		return nil
	}
	return invalid("apply", e.Node, "edit has no action")
}

func (e Edit) actions() int {
	n := 0
	for _, set := range []bool{e.Layers != nil, e.Inherit, e.Parent != "", e.Detach, e.Despawn} {
		if set {
			n++
		}
	}
	return n
}

// checkLayers rejects layer numbers above MaxLayer. A nil list is valid.
func checkLayers(operation, node string, ls *[]layers.Layer) error {
	if ls == nil {
		return nil
	}
	for _, n := range *ls {
		if n > MaxLayer {
			return invalid(operation, node, fmt.Sprintf("layer %d exceeds limit %d", n, MaxLayer))
		}
	}
	return nil
}

func invalid(operation, node, message string) error {
	return errors.New().
		Category(errors.CategoryScene).
		Operation(operation).
		Node(node).
		Message(message).
		Build()
}
