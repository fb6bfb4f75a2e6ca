// Package ir provides the backend-agnostic search criteria types for searchql.
//
// This package contains type definitions and small value helpers only. All
// other internal packages import ir; ir imports nothing internal. This keeps
// the criteria model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Rule values are never nil; "empty" is a zero-length slice
//   - Rule and SearchConfig are immutable after construction
//   - Binding values use the sealed IRValue interface (no floats)
//   - Generated variable names come from a per-compilation QueryContext,
//     never from an ambient random source
package ir
