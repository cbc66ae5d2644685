package diag

import "fmt"

// Level classifies a Diagnostic's severity.
type Level int

const (
	// Error indicates the stage cannot hand its result to the next stage.
	Error Level = iota
	// Warning is informational and never blocks the pipeline.
	Warning
)

func (l Level) String() string {
	if l == Warning {
		return "warning"
	}
	return "error"
}

// Diagnostic is a single human-readable report tied to a source Span and a
// stable error code (see internal/errcode).
type Diagnostic struct {
	Level   Level
	Code    string
	Message string
	Span    Span
}

// Bag is an append-only ordered collection of diagnostics produced by one
// pipeline stage. Callers never mutate past entries; a Bag is handed off
// to the next stage, never aliased and mutated concurrently.
type Bag struct {
	items []Diagnostic
}

// NewBag returns an empty diagnostic bag.
func NewBag() *Bag {
	return &Bag{}
}

// Add appends a diagnostic to the bag.
func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

// Errorf appends an Error-level diagnostic built from a code, span and
// formatted message.
func (b *Bag) Errorf(code string, span Span, format string, args ...interface{}) {
	b.Add(Diagnostic{Level: Error, Code: code, Message: fmt.Sprintf(format, args...), Span: span})
}

// Warnf appends a Warning-level diagnostic.
func (b *Bag) Warnf(code string, span Span, format string, args ...interface{}) {
	b.Add(Diagnostic{Level: Warning, Code: code, Message: fmt.Sprintf(format, args...), Span: span})
}

// Items returns the diagnostics accumulated so far, in emission order.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Len returns the number of diagnostics in the bag.
func (b *Bag) Len() int {
	return len(b.items)
}

// HasErrors reports whether any Error-level diagnostic was recorded.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Level == Error {
			return true
		}
	}
	return false
}

// Merge appends every diagnostic from other into b, preserving order.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
}
