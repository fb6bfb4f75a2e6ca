package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/searchql/internal/ir"
)

// AliasWarning flags a sort alias that is legal but probably not what the
// author meant.
type AliasWarning struct {
	Path    []string `json:"path"`    // alias chain: ["owner", "createdBy"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeAliases reports aliases that resolution will not treat the way
// their names suggest.
//
// Aliases resolve exactly once, so an alias whose target is another alias
// name stops at that name, and a loop of such aliases never reaches a
// property. An alias named after a reserved sort key replaces that key.
//
// A table without such aliases returns an empty warning list.
func AnalyzeAliases(spec *ir.SearchConfigSpec) []AliasWarning {
	warnings := []AliasWarning{}

	for _, name := range sortedAliasNames(spec.SortAliases) {
		if strings.EqualFold(name, ir.SortRelevance) || name == ir.SortUnsorted {
			warnings = append(warnings, AliasWarning{
				Path:    []string{name},
				Message: fmt.Sprintf("alias %q replaces the reserved sort key", name),
				Level:   "warning",
			})
		}

		path := aliasChain(name, spec.SortAliases)
		switch {
		case len(path) < 2:
		case path[len(path)-1] == path[0]:
			warnings = append(warnings, AliasWarning{
				Path:    path,
				Message: fmt.Sprintf("alias loop: %s", strings.Join(path, " -> ")),
				Level:   "warning",
			})
		default:
			warnings = append(warnings, AliasWarning{
				Path:    path,
				Message: fmt.Sprintf("alias %q targets alias %q; aliases are not chained", path[0], path[1]),
				Level:   "info",
			})
		}
	}
	return warnings
}

// aliasChain follows alias targets that are themselves alias names and
// stops at the first repeat.
func aliasChain(start string, aliases map[string]ir.Sorter) []string {
	path := []string{start}
	seen := map[string]bool{start: true}
	for cur := start; ; {
		next := aliases[cur].Field
		if _, ok := aliases[next]; !ok {
			return path
		}
		path = append(path, next)
		if seen[next] {
			return path
		}
		seen[next] = true
		cur = next
	}
}

// sortedAliasNames returns alias names in deterministic order.
func sortedAliasNames(aliases map[string]ir.Sorter) []string {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
