package scene

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zstd"

	"github.com/bibin-skaria/vislayers/internal/config"
	"github.com/bibin-skaria/vislayers/internal/errors"
	"github.com/bibin-skaria/vislayers/layers"
	"github.com/bibin-skaria/vislayers/visibility"
)

const chainScene = `
nodes:
  - name: root
  - name: mid
    parent: root
  - name: leaf
    parent: mid
steps:
  - name: root explicit
    edits:
      - node: root
        layers: [1, 2, 300]
  - name: leaf explicit
    edits:
      - node: leaf
        layers: [7]
  - name: root changes
    edits:
      - node: root
        layers: [9]
  - name: leaf inherits
    edits:
      - node: leaf
        inherit: true
`

func computed(t *testing.T, w *World, name string) []layers.Layer {
	t.Helper()
	id, ok := w.Lookup(name)
	if !ok {
		t.Fatalf("node %s not found", name)
	}
	return w.Computed(id).Layers()
}

func TestChainSceneReplay(t *testing.T) {
	file, err := Parse([]byte(chainScene))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	w, err := file.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	p := visibility.NewPropagator(w, w, visibility.Config{})

	p.Update(w)
	for _, name := range []string{"root", "mid", "leaf"} {
		if got := computed(t, w, name); len(got) != 0 {
			t.Errorf("Expected %s to start with no layers, got %v", name, got)
		}
	}

	want := []struct {
		root, mid, leaf []layers.Layer
	}{
		{root: []layers.Layer{1, 2, 300}, mid: []layers.Layer{1, 2, 300}, leaf: []layers.Layer{1, 2, 300}},
		{root: []layers.Layer{1, 2, 300}, mid: []layers.Layer{1, 2, 300}, leaf: []layers.Layer{7}},
		{root: []layers.Layer{9}, mid: []layers.Layer{9}, leaf: []layers.Layer{7}},
		{root: []layers.Layer{9}, mid: []layers.Layer{9}, leaf: []layers.Layer{9}},
	}

	for i, step := range want {
		if err := file.ApplyStep(w, i); err != nil {
			t.Fatalf("ApplyStep(%d) failed: %v", i, err)
		}
		p.Update(w)

		if diff := cmp.Diff(step.root, computed(t, w, "root")); diff != "" {
			t.Errorf("step %d root mismatch (-want +got):\n%s", i, diff)
		}
		if diff := cmp.Diff(step.mid, computed(t, w, "mid")); diff != "" {
			t.Errorf("step %d mid mismatch (-want +got):\n%s", i, diff)
		}
		if diff := cmp.Diff(step.leaf, computed(t, w, "leaf")); diff != "" {
			t.Errorf("step %d leaf mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestReparentAndDespawnConverge(t *testing.T) {
	file, err := Parse([]byte(`
nodes:
  - name: a
    layers: [1]
  - name: b
    layers: [2]
  - name: child
    parent: a
  - name: grandchild
    parent: child
steps:
  - edits:
      - node: child
        parent: b
  - edits:
      - node: child
        detach: true
  - edits:
      - node: b
        despawn: true
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	w, err := file.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	p := visibility.NewPropagator(w, w, visibility.Config{})
	p.Update(w)

	if diff := cmp.Diff([]layers.Layer{1}, computed(t, w, "grandchild")); diff != "" {
		t.Errorf("grandchild mismatch (-want +got):\n%s", diff)
	}

	if err := file.ApplyStep(w, 0); err != nil {
		t.Fatal(err)
	}
	p.Update(w)
	if diff := cmp.Diff([]layers.Layer{2}, computed(t, w, "grandchild")); diff != "" {
		t.Errorf("grandchild after reparent mismatch (-want +got):\n%s", diff)
	}

	if err := file.ApplyStep(w, 1); err != nil {
		t.Fatal(err)
	}
	p.Update(w)
	if got := computed(t, w, "grandchild"); len(got) != 0 {
		t.Errorf("Expected detached subtree to hold no layers, got %v", got)
	}

	if err := file.ApplyStep(w, 2); err != nil {
		t.Fatal(err)
	}
	stats := p.Update(w)
	if stats.Stale != 0 {
		t.Errorf("Expected despawn to leave nothing stale, got %+v", stats)
	}
}

func TestExplicitEmptyLayersDifferFromInherit(t *testing.T) {
	file, err := Parse([]byte(`
nodes:
  - name: root
    layers: [3]
  - name: hidden
    parent: root
    layers: []
  - name: shown
    parent: root
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	w, err := file.Build()
	if err != nil {
		t.Fatal(err)
	}
	visibility.NewPropagator(w, w, visibility.Config{}).Update(w)

	if got := computed(t, w, "hidden"); len(got) != 0 {
		t.Errorf("Expected hidden to hold no layers, got %v", got)
	}
	if diff := cmp.Diff([]layers.Layer{3}, computed(t, w, "shown")); diff != "" {
		t.Errorf("shown mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsInvalidScenes(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		message string
	}{
		{name: "bad yaml", data: "nodes: [", message: "invalid scene YAML"},
		{name: "unknown field", data: "nodes:\n  - name: a\n    colour: red\n", message: "invalid scene YAML"},
		{name: "negative layer", data: "nodes:\n  - name: a\n    layers: [-1]\n", message: "invalid scene YAML"},
		{name: "missing name", data: "nodes:\n  - parent: a\n", message: "has no name"},
		{name: "duplicate", data: "nodes:\n  - name: a\n  - name: a\n", message: "duplicate node name"},
		{name: "unknown parent", data: "nodes:\n  - name: a\n    parent: ghost\n", message: "unknown parent"},
		{name: "self parent", data: "nodes:\n  - name: a\n    parent: a\n", message: "own parent"},
		{name: "huge layer", data: "nodes:\n  - name: a\n    layers: [18446744073709551615]\n", message: "exceeds limit"},
		{name: "layer above limit", data: "nodes:\n  - name: a\n    layers: [1, 65536]\n", message: "layer 65536 exceeds limit"},
		{
			name:    "edit layer above limit",
			data:    "nodes:\n  - name: a\nsteps:\n  - edits:\n      - node: a\n        layers: [1099511627776]\n",
			message: "exceeds limit",
		},
		{
			name:    "two actions",
			data:    "nodes:\n  - name: a\nsteps:\n  - edits:\n      - node: a\n        inherit: true\n        detach: true\n",
			message: "exactly one action",
		},
		{
			name:    "no action",
			data:    "nodes:\n  - name: a\nsteps:\n  - edits:\n      - node: a\n",
			message: "exactly one action",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("Expected error")
			}
			if !errors.IsCategory(err, errors.CategoryScene) {
				t.Errorf("Expected scene error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("Expected error containing %q, got %q", tt.message, err.Error())
			}
		})
	}
}

func TestBuildRejectsCyclicParents(t *testing.T) {
	file, err := Parse([]byte("nodes:\n  - name: a\n    parent: b\n  - name: b\n    parent: a\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, err := file.Build(); !errors.IsCategory(err, errors.CategoryHierarchy) {
		t.Errorf("Expected hierarchy error, got %v", err)
	}
}

func TestApplyStepErrors(t *testing.T) {
	file, err := Parse([]byte("nodes:\n  - name: a\nsteps:\n  - edits:\n      - node: ghost\n        inherit: true\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	w, err := file.Build()
	if err != nil {
		t.Fatal(err)
	}
	if err := file.ApplyStep(w, 0); err == nil || !strings.Contains(err.Error(), "unknown node") {
		t.Errorf("Expected unknown node error, got %v", err)
	}
	if err := file.ApplyStep(w, 5); err == nil {
		t.Error("Expected out of range error")
	}
}

func TestLayerLimitGuardsUnvalidatedInput(t *testing.T) {
	big := []layers.Layer{MaxLayer + 1}
	file := &File{Nodes: []NodeSpec{{Name: "a", Layers: &big}}}
	if _, err := file.Build(); !errors.IsCategory(err, errors.CategoryScene) {
		t.Errorf("Expected scene error from Build, got %v", err)
	}

	w := NewWorld()
	id, err := w.Spawn("a")
	if err != nil {
		t.Fatal(err)
	}
	if err := (Edit{Node: "a", Layers: &big}).Apply(w); err == nil {
		t.Error("Expected error from Apply")
	}

	edge := []layers.Layer{MaxLayer}
	if err := (Edit{Node: "a", Layers: &edge}).Apply(w); err != nil {
		t.Fatalf("Expected MaxLayer itself to be accepted, got %v", err)
	}
	declared, _, _ := w.Layers(id)
	if got, ok := declared.Set(); !ok || !got.Contains(MaxLayer) {
		t.Errorf("Expected explicit layers holding %d, got %v", MaxLayer, declared)
	}
}

func TestLoadPlainAndCompressed(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "scene.yaml")
	if err := os.WriteFile(plain, []byte(chainScene), 0644); err != nil {
		t.Fatal(err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	packed := encoder.EncodeAll([]byte(chainScene), nil)
	encoder.Close()
	compressed := filepath.Join(dir, "scene.yaml"+config.CompressedSuffix)
	if err := os.WriteFile(compressed, packed, 0644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{plain, compressed} {
		file, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", path, err)
		}
		if len(file.Nodes) != 3 || len(file.Steps) != 4 {
			t.Errorf("Load(%s): expected 3 nodes and 4 steps, got %d and %d", path, len(file.Nodes), len(file.Steps))
		}
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); !errors.IsCategory(err, errors.CategoryFilesystem) {
		t.Errorf("Expected filesystem error, got %v", err)
	}
}

func TestSnapshotWriters(t *testing.T) {
	file, err := Parse([]byte(chainScene))
	if err != nil {
		t.Fatal(err)
	}
	w, err := file.Build()
	if err != nil {
		t.Fatal(err)
	}
	if err := file.ApplyStep(w, 0); err != nil {
		t.Fatal(err)
	}
	visibility.NewPropagator(w, w, visibility.Config{}).Update(w)

	var table bytes.Buffer
	if err := WriteTable(&table, w.Snapshot()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(table.String(), "NODE") || !strings.Contains(table.String(), "[1 2 300]") {
		t.Errorf("Unexpected table:\n%s", table.String())
	}

	var doc bytes.Buffer
	if err := WriteYAML(&doc, w.Snapshot()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(doc.String(), "name: leaf") || !strings.Contains(doc.String(), "parent: mid") {
		t.Errorf("Unexpected YAML:\n%s", doc.String())
	}
}
