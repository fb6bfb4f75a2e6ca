// Package harness runs search compilation scenarios.
//
// A scenario is a YAML file listing requests to compile and assertions on
// the compiled queries. It is the regression format for query shapes: a
// change to any builder shows up as a failed assertion or a golden diff.
//
// # Scenario Format
//
//	name: sorted_title_search
//	description: "Title equality sorted by the case-insensitive title"
//	config: search.cue          # optional, relative to the scenario file
//	query_id_prefix: q          # optional, trace ids become q-1, q-2, ...
//	policy: abort               # optional, abort or skip
//	steps:
//	  - name: by_title
//	    request:
//	      rules:
//	        - { field: dcterms:title, type: string, operator: equals, values: [report] }
//	      sorters:
//	        - { field: title, ascending: true }
//	    expect:
//	      dialect: sparql
//	assertions:
//	  - type: text_contains
//	    step: by_title
//	    text: "ORDER BY ASC(?v2sort_)"
//
// # Assertion Types
//
//   - text_contains: the step's query text contains Text
//   - text_not_contains: the step's query text does not contain Text
//   - text_order: the fragments in Texts occur in the step's text in order
//   - text_count: Text occurs exactly Count times in the step's text
//   - binding_equals: the step binds Binding to Value
//   - logged_count: the query log holds exactly Count records
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory query log, with trace ids
// drawn from a testutil.SequenceIDGenerator, so repeated runs produce
// byte-identical traces for golden comparison.
package harness
