// Package queryir holds a SPARQL SELECT query while it is being extended.
//
// The graph dialect never edits query text by index arithmetic. A query
// template is parsed once into a Select that keeps the caller's text in
// three verbatim segments (head, WHERE body, tail) and collects additions in
// separate buffers:
//
//	[head] [projection...] WHERE { [body] [patterns...] } [ORDER BY ...] [tail]
//
// String serializes the result exactly once. A Select with no additions
// serializes to the original text byte-for-byte.
//
// SEALED INTERFACES:
//
// Pattern is a sealed interface using the marker method pattern. Only
// types in this package implement it, so renderers can switch exhaustively:
//
//	switch p := pattern.(type) {
//	case Triple:
//	case Optional:
//	case Bind:
//	case Subquery:
//	case Raw:
//	}
//
// Parsing rules:
//   - the outer WHERE is the first WHERE keyword (case-insensitive, word
//     boundary); its block opens at the next "{"
//   - the block closes at the last "}" in the text
//   - an ORDER BY at the start of the tail is kept and extended, never
//     duplicated
package queryir
