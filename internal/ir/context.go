package ir

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces trace identifiers for compiled queries.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 identifiers.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// QueryContext carries the ambient state of one compilation pass.
//
// Every generated name (sort variables, bound parameters, permission
// suffixes) draws from the same counter, so no two names produced within
// one compilation can collide. A QueryContext must not be reused across
// compilations; create one per request.
//
// The binding map is not synchronized. The counter is atomic, so nested
// builders may share the context, but bindings are written from a single
// goroutine.
type QueryContext struct {
	// Offset and Limit are the pagination numbers; values <= 0 are ignored.
	Offset int
	Limit  int

	// IncludeInferred and Timeout are forwarded to the query executor.
	IncludeInferred bool
	Timeout         time.Duration

	ids      IDGenerator
	seq      atomic.Int64
	bindings IRObject
	warnings []string
}

// NewQueryContext creates a context with IncludeInferred enabled.
// A nil generator falls back to UUIDv7Generator.
func NewQueryContext(ids IDGenerator) *QueryContext {
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	return &QueryContext{
		IncludeInferred: true,
		ids:             ids,
		bindings:        IRObject{},
	}
}

// next returns the next counter value. Calls are linearizable.
func (c *QueryContext) next() int64 {
	return c.seq.Add(1)
}

// NextVar returns a fresh SPARQL variable, e.g. NextVar("sort") -> "?v3sort".
func (c *QueryContext) NextVar(suffix string) string {
	return "?v" + strconv.FormatInt(c.next(), 10) + suffix
}

// NextParam returns a fresh binding name without the leading "?", e.g. "p4".
func (c *QueryContext) NextParam() string {
	return "p" + strconv.FormatInt(c.next(), 10)
}

// NextSuffix returns a fresh suffix for template macros, e.g. "_5".
func (c *QueryContext) NextSuffix() string {
	return "_" + strconv.FormatInt(c.next(), 10)
}

// Generated returns how many names have been drawn so far.
func (c *QueryContext) Generated() int64 {
	return c.seq.Load()
}

// TraceID returns a new trace identifier from the context's generator.
func (c *QueryContext) TraceID() string {
	return c.ids.Generate()
}

// Bind records a binding. A later call with the same name replaces the value.
func (c *QueryContext) Bind(name string, value IRValue) {
	c.bindings[name] = value
}

// Binding returns the value bound to name.
func (c *QueryContext) Binding(name string) (IRValue, bool) {
	v, ok := c.bindings[name]
	return v, ok
}

// Bindings returns a copy of all recorded bindings.
func (c *QueryContext) Bindings() IRObject {
	out := make(IRObject, len(c.bindings))
	for k, v := range c.bindings {
		out[k] = v
	}
	return out
}

// Warn records a non-fatal problem found while compiling. The caller
// decides how to report it.
func (c *QueryContext) Warn(message string) {
	c.warnings = append(c.warnings, message)
}

// Warnings returns the recorded warnings in order.
func (c *QueryContext) Warnings() []string {
	return append([]string(nil), c.warnings...)
}
