package querysparql

import (
	"fmt"

	"github.com/roach88/searchql/internal/ir"
	"github.com/roach88/searchql/internal/queryir"
)

// FilterBindings converts caller bindings to typed values, keeping only the
// names that occur in query as ?name or $name. The trace tag line is not
// searched. Absent names and nil values are skipped; callers may pass a
// superset.
func FilterBindings(query string, bindings map[string]any) (ir.IRObject, error) {
	query = StripQueryID(query)
	out := ir.IRObject{}
	for name, raw := range bindings {
		if raw == nil || !usesBinding(query, name) {
			continue
		}
		v, err := ir.ParseBindingValue(raw)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

func usesBinding(query, name string) bool {
	return queryir.Mentions(query, "?"+name) || queryir.Mentions(query, "$"+name)
}

// MergeBindings converts typed context bindings back into the caller form
// and overlays them on extra. Context bindings win on name clashes.
func MergeBindings(extra map[string]any, ctx *ir.QueryContext) map[string]any {
	out := make(map[string]any, len(extra))
	for k, v := range extra {
		out[k] = v
	}
	for k, v := range ctx.Bindings() {
		out[k] = v
	}
	return out
}
