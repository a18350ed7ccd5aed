package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorBuilder(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := New().
		Category(CategoryHierarchy).
		Operation("set_parent").
		Node("leaf").
		Messagef("parenting under %s would create a cycle", "root").
		Suggestion("detach the node first").
		Cause(cause).
		Build()

	if err.Category != CategoryHierarchy {
		t.Errorf("Expected category %s, got %s", CategoryHierarchy, err.Category)
	}
	if err.Operation != "set_parent" {
		t.Errorf("Expected operation set_parent, got %s", err.Operation)
	}
	if err.Node != "leaf" {
		t.Errorf("Expected node leaf, got %s", err.Node)
	}
	if !stderrors.Is(err, cause) {
		t.Error("Expected error to unwrap to its cause")
	}

	want := "[hierarchy] set_parent node leaf: parenting under root would create a cycle: underlying"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
	if !strings.Contains(err.UserMessage(), "Suggestion: detach the node first") {
		t.Errorf("Expected suggestion in user message, got %q", err.UserMessage())
	}
}

func TestBuildDefaults(t *testing.T) {
	err := New().Message("something broke").Build()
	if err.Category != CategoryUnknown {
		t.Errorf("Expected category %s, got %s", CategoryUnknown, err.Category)
	}
	if err.Error() != "[unknown]: something broke" {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, CategoryScene, "load") != nil {
		t.Error("Expected Wrap(nil) to return nil")
	}

	cause := fmt.Errorf("disk on fire")
	err := Wrap(cause, CategoryFilesystem, "read")
	if !stderrors.Is(err, cause) {
		t.Error("Expected wrapped error to unwrap to cause")
	}
	if !IsCategory(err, CategoryFilesystem) {
		t.Error("Expected filesystem category")
	}
}

func TestIsCategory(t *testing.T) {
	inner := New().Category(CategoryFilesystem).Message("missing").Build()
	outer := New().Category(CategoryScene).Message("load failed").Cause(inner).Build()
	wrapped := fmt.Errorf("context: %w", outer)

	tests := []struct {
		name     string
		err      error
		category Category
		want     bool
	}{
		{name: "outer", err: wrapped, category: CategoryScene, want: true},
		{name: "inner through chain", err: wrapped, category: CategoryFilesystem, want: true},
		{name: "absent", err: wrapped, category: CategoryHierarchy, want: false},
		{name: "plain error", err: fmt.Errorf("plain"), category: CategoryScene, want: false},
		{name: "nil", err: nil, category: CategoryScene, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCategory(tt.err, tt.category); got != tt.want {
				t.Errorf("Expected IsCategory = %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	if c.HasErrors() || c.Err() != nil {
		t.Fatal("Expected empty collector")
	}

	c.Add(nil)
	c.Add(New().Category(CategoryScene).Message("first").Build())
	c.Add(New().Category(CategoryHierarchy).Message("second").Build())

	if !c.HasErrors() {
		t.Fatal("Expected collector to have errors")
	}
	if len(c.Errors()) != 2 {
		t.Errorf("Expected 2 errors, got %d", len(c.Errors()))
	}
	joined := c.Err()
	if !IsCategory(joined, CategoryScene) {
		t.Error("Expected joined error to contain scene category")
	}
	if !IsCategory(joined, CategoryHierarchy) {
		t.Error("Expected joined error to contain hierarchy category")
	}
	if !strings.Contains(joined.Error(), "second") {
		t.Errorf("Expected joined message to contain both errors, got %q", joined.Error())
	}
}
