package querysparql

import (
	"fmt"
	"strings"

	"github.com/roach88/searchql/internal/ir"
	"github.com/roach88/searchql/internal/queryir"
)

// ResolveSorter maps a sorter through the alias table and the ranking key.
// It returns false when the sorter should be skipped: a blank field or the
// "unsorted" sentinel.
//
// An alias replaces the field and the object-property flag; direction and
// AllowMissing always come from the request.
func ResolveSorter(s ir.Sorter, cfg *ir.SearchConfig) (ir.Sorter, bool) {
	field := strings.TrimSpace(s.Field)
	if alias, ok := cfg.SortAlias(field); ok {
		s.Field = alias.Field
		s.ObjectProperty = alias.ObjectProperty
	} else if strings.EqualFold(field, ir.SortRelevance) {
		s.Field = cfg.RankingField()
		s.ObjectProperty = false
	} else {
		s.Field = field
	}
	if s.Field == "" || s.Field == ir.SortUnsorted {
		return s, false
	}
	return s, true
}

// ApplyOrderBy adds one sort clause per effective sorter, in input order.
//
// Each clause binds a fresh variable, projects it and appends an ORDER BY
// key. The returned projection lists the added variables. A query with no
// effective sorter is returned unchanged and is not parsed. Validation
// warnings are recorded in ctx.
func ApplyOrderBy(query string, sorters []ir.Sorter, cfg *ir.SearchConfig, ctx *ir.QueryContext) (string, []string, error) {
	resolved := make([]ir.Sorter, 0, len(sorters))
	for _, s := range sorters {
		if r, ok := ResolveSorter(s, cfg); ok {
			resolved = append(resolved, r)
		}
	}
	if len(resolved) == 0 {
		return query, nil, nil
	}

	sel, err := queryir.Parse(query)
	if err != nil {
		return "", nil, fmt.Errorf("apply order by: %w", err)
	}
	for _, s := range resolved {
		if s.ObjectProperty {
			addObjectSort(sel, s, cfg, ctx)
		} else {
			addDataSort(sel, s, cfg, ctx)
		}
	}

	if result := queryir.Validate(sel); !result.Valid {
		for _, w := range result.Warnings {
			ctx.Warn("sort clause: " + w)
		}
	}
	return sel.String(), sel.Projection(), nil
}

func addDataSort(sel *queryir.Select, s ir.Sorter, cfg *ir.SearchConfig, ctx *ir.QueryContext) {
	v := ctx.NextVar(SortSuffix)

	var p queryir.Pattern = queryir.Triple{Subject: InstanceVar, Predicate: predicate(s.Field), Object: v}
	if s.AllowMissing {
		p = queryir.Optional{Inner: p}
	}
	sel.AddPattern(p)

	if cfg.IsCaseInsensitive(s.Field) {
		lower := v + "_"
		sel.AddPattern(queryir.Bind{Expr: "lcase(" + v + ")", Var: lower})
		v = lower
	}
	sel.AddProjection(v)
	sel.AddOrder(queryir.OrderTerm{Var: v, Ascending: s.Ascending})
}

// addObjectSort sorts by the title of the related entity. The subquery
// keeps one value per instance, so an instance related more than once is
// not repeated in the result.
func addObjectSort(sel *queryir.Select, s ir.Sorter, cfg *ir.SearchConfig, ctx *ir.QueryContext) {
	v := ctx.NextVar(SortSuffix)
	projected := v + "_"

	sub := fmt.Sprintf("select %[1]s (MIN(lcase(%[2]s)) as %[3]s) where {\n %[1]s %[4]s ?sortInstance .\n ?sortInstance %[5]s %[2]s .\n } group by %[1]s",
		InstanceVar, v, projected, predicate(s.Field), predicate(cfg.TitleProperty()))

	var p queryir.Pattern = queryir.Subquery{Text: sub}
	if s.AllowMissing {
		p = queryir.Optional{Inner: p}
	}
	sel.AddPattern(p)
	sel.AddProjection(projected)
	sel.AddOrder(queryir.OrderTerm{Var: projected, Ascending: s.Ascending})
}
