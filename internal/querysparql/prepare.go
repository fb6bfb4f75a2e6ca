package querysparql

import (
	"time"

	"github.com/roach88/searchql/internal/ir"
)

// PreparedQuery is the executable form of a graph query, handed to the
// query executor as-is.
type PreparedQuery struct {
	QueryID         string        `json:"query_id"`
	Text            string        `json:"text"`
	Bindings        ir.IRObject   `json:"bindings"`
	Projection      []string      `json:"projection,omitempty"`
	IncludeInferred bool          `json:"include_inferred"`
	Timeout         time.Duration `json:"timeout,omitempty"`
}

// Prepare tags the query with a fresh trace id from ctx and attaches the
// bindings that occur in the text. The executor settings come from ctx.
func Prepare(query string, bindings map[string]any, ctx *ir.QueryContext) (*PreparedQuery, error) {
	id, ok := QueryID(query)
	if !ok {
		id = ctx.TraceID()
		query = TagQuery(query, id)
	}

	filtered, err := FilterBindings(query, bindings)
	if err != nil {
		return nil, err
	}
	return &PreparedQuery{
		QueryID:         id,
		Text:            query,
		Bindings:        filtered,
		IncludeInferred: ctx.IncludeInferred,
		Timeout:         ctx.Timeout,
	}, nil
}
