// Package pipeline assembles executable search queries.
//
// A Pipeline turns a Request (rules, sorters, pagination, permission
// options, caller bindings) into a Result for one of two dialects:
//
//   - "sparql": the graph dialect, compiled by Assemble
//   - "solr": the full-text dialect, compiled by AssembleFullText
//
// Graph assembly runs a fixed sequence of steps. Each step is idempotent on
// its own, and callers needing only a subset use the querysparql functions
// directly:
//
//	connector name -> permissions -> order by -> offset -> limit ->
//	group by -> namespaces -> trace tag -> bindings -> prepare
//
// Search configuration is read through a ConfigHolder. Readers never lock;
// a reload builds a complete new configuration and swaps it in.
package pipeline
