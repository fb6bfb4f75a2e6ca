package querysparql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/searchql/internal/ir"
)

var (
	prefixRe = regexp.MustCompile(`(?im)^\s*PREFIX\s+[\w.-]*:\s*<`)
	offsetRe = regexp.MustCompile(`(?i)\bOFFSET\b`)
	limitRe  = regexp.MustCompile(`(?i)\bLIMIT\b`)
)

// InjectNamespaces prepends one "PREFIX p: <uri>" line per namespace.
// Text that already declares any PREFIX is returned unchanged.
func InjectNamespaces(query string, namespaces []ir.Namespace) string {
	if len(namespaces) == 0 || prefixRe.MatchString(query) {
		return query
	}
	var b strings.Builder
	for _, ns := range namespaces {
		fmt.Fprintf(&b, "PREFIX %s: <%s>\n", strings.TrimSpace(ns.Prefix), ns.URI)
	}
	b.WriteString(query)
	return b.String()
}

// TagQuery prepends a "# Query ID: <id>" comment line. A query that
// already starts with a tag is returned unchanged.
func TagQuery(query, id string) string {
	if strings.HasPrefix(query, QueryIDPrefix) {
		return query
	}
	return QueryIDPrefix + id + "\n" + query
}

// QueryID extracts the identifier written by TagQuery.
func QueryID(query string) (string, bool) {
	if !strings.HasPrefix(query, QueryIDPrefix) {
		return "", false
	}
	line, _, _ := strings.Cut(query[len(QueryIDPrefix):], "\n")
	return strings.TrimSpace(line), true
}

// StripQueryID removes a leading trace tag.
func StripQueryID(query string) string {
	if !strings.HasPrefix(query, QueryIDPrefix) {
		return query
	}
	_, rest, found := strings.Cut(query, "\n")
	if !found {
		return ""
	}
	return rest
}

// InjectOffset appends " OFFSET n" when n > 0 and the text has no OFFSET.
func InjectOffset(query string, offset int) string {
	if offset <= 0 || offsetRe.MatchString(query) {
		return query
	}
	return fmt.Sprintf("%s OFFSET %d", query, offset)
}

// InjectLimit appends " LIMIT n" when n > 0 and the text has no LIMIT.
func InjectLimit(query string, limit int) string {
	if limit <= 0 || limitRe.MatchString(query) {
		return query
	}
	return fmt.Sprintf("%s LIMIT %d", query, limit)
}

// ReplaceConnectorName substitutes every $connectorName$ marker.
func ReplaceConnectorName(query, name string) string {
	return strings.ReplaceAll(query, ConnectorMarker, name)
}

// WrapGroupBy wraps a complete query in an aggregate that counts results
// per value of property. The inner query is embedded byte-for-byte.
// For object properties, grouped values that are deleted are excluded.
func WrapGroupBy(query, property string, objectProperty bool) string {
	var b strings.Builder
	b.Grow(len(query) + 192)

	fmt.Fprintf(&b, "SELECT (%s AS ?name) (count(%s) AS ?count) WHERE { ", GroupByVar, GroupByVar)
	fmt.Fprintf(&b, "%s %s %s . ", InstanceVar, predicate(property), GroupByVar)
	if objectProperty {
		fmt.Fprintf(&b, "%s emf:isDeleted \"false\"^^xsd:boolean . ", GroupByVar)
	}
	b.WriteString(" { ")
	b.WriteString(query)
	b.WriteString(" } ")
	fmt.Fprintf(&b, " } GROUP BY %s", GroupByVar)
	return b.String()
}

// predicate renders a property as a prefixed name or an IRI reference.
func predicate(property string) string {
	p := strings.TrimSpace(property)
	if strings.Contains(p, "://") && !strings.HasPrefix(p, "<") {
		return "<" + p + ">"
	}
	return p
}

// variable normalizes a variable name to its "?name" form.
func variable(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return InstanceVar
	}
	if strings.HasPrefix(name, "?") {
		return name
	}
	return "?" + name
}
