package queryir

import (
	"regexp"
	"strings"

	"github.com/roach88/searchql/internal/ir"
)

var (
	whereRe     = regexp.MustCompile(`(?i)\bWHERE\b`)
	selectAllRe = regexp.MustCompile(`(?i)\bSELECT\s+(?:DISTINCT\s+|REDUCED\s+)?\*`)
	orderByRe   = regexp.MustCompile(`(?i)\bORDER\s+BY\b`)
	sliceRe     = regexp.MustCompile(`(?i)\b(?:LIMIT|OFFSET)\b`)
)

// Parse splits a SELECT query into its verbatim segments.
//
// It fails with a QUERY_COMPILATION error when the text has no WHERE
// keyword, no opening brace after it, or no closing brace after that.
// Those are template bugs, never user input.
func Parse(query string) (*Select, error) {
	whereAt := findWhere(query)
	if whereAt < 0 {
		return nil, ir.NewMalformedQueryError("cannot locate WHERE keyword", query)
	}

	open := strings.IndexByte(query[whereAt:], '{')
	if open < 0 {
		return nil, ir.NewMalformedQueryError("WHERE clause has no opening brace", query)
	}
	open += whereAt

	closing := strings.LastIndexByte(query, '}')
	if closing <= open {
		return nil, ir.NewMalformedQueryError("cannot locate closing brace of WHERE clause", query)
	}

	s := &Select{
		source: query,
		head:   query[:whereAt],
		where:  query[whereAt : open+1],
		body:   query[open+1 : closing],
	}
	s.tailPre, s.tailOrder, s.tailRest = splitTail(query[closing+1:])
	return s, nil
}

// splitTail separates the solution modifiers after the WHERE block:
// GROUP BY/HAVING text, the terms of an ORDER BY clause, and LIMIT/OFFSET.
func splitTail(tail string) (pre, order, rest string) {
	if loc := orderByRe.FindStringIndex(tail); loc != nil {
		pre = tail[:loc[0]]
		after := tail[loc[1]:]
		if sl := sliceRe.FindStringIndex(after); sl != nil {
			return pre, strings.TrimSpace(after[:sl[0]]), after[sl[0]:]
		}
		return pre, strings.TrimSpace(after), ""
	}
	if sl := sliceRe.FindStringIndex(tail); sl != nil {
		return tail[:sl[0]], "", tail[sl[0]:]
	}
	return tail, "", ""
}

// findWhere returns the offset of the first WHERE keyword that is not on a
// comment line, or -1.
func findWhere(query string) int {
	for _, loc := range whereRe.FindAllStringIndex(query, -1) {
		lineStart := strings.LastIndexByte(query[:loc[0]], '\n') + 1
		if strings.HasPrefix(strings.TrimSpace(query[lineStart:loc[0]]), "#") {
			continue
		}
		return loc[0]
	}
	return -1
}
