package compiler

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/searchql/internal/ir"
)

// DefaultSource is the built-in configuration in CUE form.
//
//go:embed default.cue
var DefaultSource []byte

// Default compiles the built-in configuration.
func Default() (*ir.SearchConfig, error) {
	return CompileSource(DefaultSource, "default.cue")
}

// CompileSource compiles CUE source holding a top-level "search" block.
func CompileSource(src []byte, filename string) (*ir.SearchConfig, error) {
	spec, err := SourceSpec(src, filename)
	if err != nil {
		return nil, err
	}
	return buildConfig(spec)
}

// SourceSpec is CompileSource without validation.
func SourceSpec(src []byte, filename string) (*ir.SearchConfigSpec, error) {
	return specFromValue(cuecontext.New().CompileBytes(src, cue.Filename(filename)))
}

// LoadConfig loads a configuration from a .cue file or from a directory
// holding one CUE package, and validates it.
func LoadConfig(path string) (*ir.SearchConfig, error) {
	spec, err := LoadSpec(path)
	if err != nil {
		return nil, err
	}
	return buildConfig(spec)
}

// LoadSpec reads the "search" block from a .cue file or directory without
// validating it. Callers that want every problem, not just the first,
// pass the result to ValidateConfig.
func LoadSpec(path string) (*ir.SearchConfigSpec, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if !info.IsDir() {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		return SourceSpec(src, path)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: path})
	if len(instances) == 0 {
		return nil, &CompileError{Field: "cue", Message: "no CUE instances loaded from " + path}
	}
	if inst := instances[0]; inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}
	return specFromValue(cuecontext.New().BuildInstance(instances[0]))
}

func specFromValue(v cue.Value) (*ir.SearchConfigSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	searchVal := v.LookupPath(cue.ParsePath("search"))
	if !searchVal.Exists() {
		return nil, &CompileError{
			Field:   "search",
			Message: "search block is required",
			Pos:     v.Pos(),
		}
	}
	return CompileConfig(searchVal)
}

func buildConfig(spec *ir.SearchConfigSpec) (*ir.SearchConfig, error) {
	if errs := ValidateConfig(spec); len(errs) > 0 {
		return nil, errs[0]
	}
	return ir.NewSearchConfig(*spec)
}

// CompileConfig parses a "search" CUE value into a configuration spec.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`search: { sort_alias: title: field: "dcterms:title" }`)
//	spec, err := CompileConfig(v.LookupPath(cue.ParsePath("search")))
func CompileConfig(v cue.Value) (*ir.SearchConfigSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.SearchConfigSpec{}
	var err error

	if spec.RankingField, err = optionalString(v, "ranking_field"); err != nil {
		return nil, err
	}
	if spec.TitleProperty, err = optionalString(v, "title_property"); err != nil {
		return nil, err
	}
	if spec.ConnectorName, err = optionalString(v, "connector_name"); err != nil {
		return nil, err
	}

	if spec.SortAliases, err = parseSortAliases(v); err != nil {
		return nil, err
	}
	if spec.CaseInsensitive, err = parseStringList(v, "case_insensitive"); err != nil {
		return nil, err
	}
	if spec.Namespaces, err = parseNamespaces(v); err != nil {
		return nil, err
	}

	permVal := v.LookupPath(cue.ParsePath("permissions"))
	if permVal.Exists() {
		if spec.Permissions.Read, err = optionalString(permVal, "read"); err != nil {
			return nil, err
		}
		if spec.Permissions.Write, err = optionalString(permVal, "write"); err != nil {
			return nil, err
		}
	}

	return spec, nil
}

// parseSortAliases reads "sort_alias: <name>: {field, object_property}".
func parseSortAliases(v cue.Value) (map[string]ir.Sorter, error) {
	aliasVal := v.LookupPath(cue.ParsePath("sort_alias"))
	if !aliasVal.Exists() {
		return nil, nil
	}

	iter, err := aliasVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	aliases := make(map[string]ir.Sorter)
	for iter.Next() {
		name := iter.Label()
		entry := iter.Value()

		fieldVal := entry.LookupPath(cue.ParsePath("field"))
		if !fieldVal.Exists() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("sort_alias.%s.field", name),
				Message: "alias field is required",
				Pos:     entry.Pos(),
			}
		}
		field, err := fieldVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		sorter := ir.Sorter{Field: field}
		objVal := entry.LookupPath(cue.ParsePath("object_property"))
		if objVal.Exists() {
			if sorter.ObjectProperty, err = objVal.Bool(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		aliases[name] = sorter
	}
	return aliases, nil
}

// parseNamespaces reads "namespace: <prefix>: <uri>" in declaration order.
func parseNamespaces(v cue.Value) ([]ir.Namespace, error) {
	nsVal := v.LookupPath(cue.ParsePath("namespace"))
	if !nsVal.Exists() {
		return nil, nil
	}

	iter, err := nsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var namespaces []ir.Namespace
	for iter.Next() {
		uri, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		namespaces = append(namespaces, ir.Namespace{Prefix: iter.Label(), URI: uri})
	}
	return namespaces, nil
}

func parseStringList(v cue.Value, path string) ([]string, error) {
	listVal := v.LookupPath(cue.ParsePath(path))
	if !listVal.Exists() {
		return nil, nil
	}

	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

func optionalString(v cue.Value, path string) (string, error) {
	val := v.LookupPath(cue.ParsePath(path))
	if !val.Exists() {
		return "", nil
	}
	s, err := val.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
