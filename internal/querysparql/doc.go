// Package querysparql compiles search criteria into SPARQL for a triple store.
//
// Every step is a separate function over query text and is idempotent on
// its own, so callers can run a subset or re-run a step safely:
//
//	ReplaceConnectorName  $connectorName$ -> configured connector
//	InjectPermissions     $permissions_block$<var> -> permission filter
//	ApplyOrderBy          sort patterns, projection and ORDER BY
//	InjectOffset          " OFFSET n" unless an OFFSET is present
//	InjectLimit           " LIMIT n" unless a LIMIT is present
//	InjectNamespaces      PREFIX lines unless any PREFIX is present
//	TagQuery              "# Query ID: <id>" comment line
//	FilterBindings        keep only bindings named in the text
//	WrapGroupBy           aggregate count per value of a property
//
// Names generated during a compilation (sort variables, bound parameters,
// permission suffixes) come from the ir.QueryContext passed in, never from
// a global random source.
package querysparql

// Well-known variables and markers.
const (
	InstanceVar     = "?instance"
	InstanceTypeVar = "?instanceType"
	GroupByVar      = "?groupByProperty"
	CurrentUser     = "currentUser"
	SortSuffix      = "sort"

	QueryIDPrefix    = "# Query ID: "
	ConnectorMarker  = "$connectorName$"
	PermissionMarker = "$permissions_block$"
	HasPermission    = "sec:hasPermission"

	MacroInstance = "%instance%"
	MacroSuffix   = "%suffix%"
)
