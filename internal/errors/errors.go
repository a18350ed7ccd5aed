package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Category groups errors by the part of the system that produced them.
type Category string

const (
	CategoryConfiguration Category = "configuration"
	CategoryScene         Category = "scene"
	CategoryHierarchy     Category = "hierarchy"
	CategoryValidation    Category = "validation"
	CategoryFilesystem    Category = "filesystem"
	CategoryUnknown       Category = "unknown"
)

// Error is a categorised error carrying the operation and node it concerns.
type Error struct {
	Category   Category `json:"category"`
	Operation  string   `json:"operation,omitempty"`
	Node       string   `json:"node,omitempty"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	Cause      error    `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s]", e.Category)
	if e.Operation != "" {
		fmt.Fprintf(&sb, " %s", e.Operation)
	}
	if e.Node != "" {
		fmt.Fprintf(&sb, " node %s", e.Node)
	}
	fmt.Fprintf(&sb, ": %s", e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&sb, ": %v", e.Cause)
	}
	return sb.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// UserMessage returns the message with its suggestion, if any.
func (e *Error) UserMessage() string {
	msg := e.Error()
	if e.Suggestion != "" {
		msg += "\n\nSuggestion: " + e.Suggestion
	}
	return msg
}

// Builder helps construct Error instances
type Builder struct {
	err Error
}

// New creates a new error builder
func New() *Builder {
	return &Builder{}
}

// Category sets the error category
func (b *Builder) Category(category Category) *Builder {
	b.err.Category = category
	return b
}

// Operation sets the operation context
func (b *Builder) Operation(operation string) *Builder {
	b.err.Operation = operation
	return b
}

// Node sets the node the error concerns
func (b *Builder) Node(node string) *Builder {
	b.err.Node = node
	return b
}

// Message sets the error message
func (b *Builder) Message(message string) *Builder {
	b.err.Message = message
	return b
}

// Messagef sets the error message with formatting
func (b *Builder) Messagef(format string, args ...interface{}) *Builder {
	b.err.Message = fmt.Sprintf(format, args...)
	return b
}

// Suggestion sets a user-friendly suggestion
func (b *Builder) Suggestion(suggestion string) *Builder {
	b.err.Suggestion = suggestion
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Build creates the Error instance
func (b *Builder) Build() *Error {
	out := b.err
	if out.Category == "" {
		out.Category = CategoryUnknown
	}
	if out.Message == "" && out.Cause != nil {
		out.Message = "operation failed"
	}
	return &out
}

// Wrap wraps err as an Error of the given category. A nil err returns nil.
func Wrap(err error, category Category, operation string) error {
	if err == nil {
		return nil
	}
	return New().
		Category(category).
		Operation(operation).
		Message("operation failed").
		Cause(err).
		Build()
}

// IsCategory reports whether any Error in err's chain has the given category.
func IsCategory(err error, category Category) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *Error:
		return e.Category == category || IsCategory(e.Cause, category)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if IsCategory(inner, category) {
				return true
			}
		}
		return false
	default:
		return IsCategory(stderrors.Unwrap(err), category)
	}
}

// Collector gathers several errors from one operation.
type Collector struct {
	errors []error
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{}
}

// Add records err. Nil errors are ignored.
func (c *Collector) Add(err error) {
	if err != nil {
		c.errors = append(c.errors, err)
	}
}

// HasErrors returns true if any errors were recorded
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns the recorded errors
func (c *Collector) Errors() []error {
	return c.errors
}

// Err joins the recorded errors, or returns nil when there are none.
func (c *Collector) Err() error {
	return stderrors.Join(c.errors...)
}
