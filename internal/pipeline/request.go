package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/searchql/internal/ir"
	"github.com/roach88/searchql/internal/querysolr"
	"github.com/roach88/searchql/internal/querysparql"
)

// Request is one search to compile.
//
// Query is an optional hand-written base query. For the graph dialect a
// blank Query is compiled from Rules; for the full-text dialect Query is
// and-ed with the compiled Rules.
type Request struct {
	Dialect string
	Query   string
	Rules   []ir.Rule
	Sorters []ir.Sorter

	Offset int
	Limit  int
	// Skip is the number of rows of the first window the caller drops
	// client-side. It is reported back unchanged (see PageOffset).
	Skip int

	Access          string
	Admin           bool
	SkipPermissions bool
	CurrentUser     string

	Bindings map[string]any

	GroupBy       string
	GroupByObject bool

	ExcludeInferred bool
	Timeout         time.Duration
}

// Result is a compiled query ready for the executor.
type Result struct {
	Dialect         string        `json:"dialect" yaml:"dialect"`
	QueryID         string        `json:"query_id" yaml:"query_id"`
	Text            string        `json:"text" yaml:"text"`
	Bindings        ir.IRObject   `json:"bindings" yaml:"-"`
	Projection      []string      `json:"projection,omitempty" yaml:"projection,omitempty"`
	IncludeInferred bool          `json:"include_inferred" yaml:"include_inferred"`
	Timeout         time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Skip            int           `json:"skip,omitempty" yaml:"skip,omitempty"`
	Fingerprint     string        `json:"fingerprint" yaml:"fingerprint"`
}

// RuleSpec is the file form of a rule.
type RuleSpec struct {
	Field    string   `yaml:"field" toml:"field" json:"field"`
	Type     string   `yaml:"type" toml:"type" json:"type"`
	Operator string   `yaml:"operator" toml:"operator" json:"operator"`
	Values   []string `yaml:"values" toml:"values" json:"values"`
}

// PageSpec requests a page instead of a raw offset.
type PageSpec struct {
	Number  int `yaml:"number" toml:"number" json:"number"`
	Size    int `yaml:"size" toml:"size" json:"size"`
	MaxSize int `yaml:"max_size" toml:"max_size" json:"max_size"`
}

// RequestSpec is the file form of a Request, decoded from YAML or TOML.
type RequestSpec struct {
	Dialect         string         `yaml:"dialect" toml:"dialect" json:"dialect"`
	Query           string         `yaml:"query" toml:"query" json:"query"`
	Rules           []RuleSpec     `yaml:"rules" toml:"rules" json:"rules"`
	Sorters         []ir.Sorter    `yaml:"sorters" toml:"sorters" json:"sorters"`
	Offset          int            `yaml:"offset" toml:"offset" json:"offset"`
	Limit           int            `yaml:"limit" toml:"limit" json:"limit"`
	Page            *PageSpec      `yaml:"page" toml:"page" json:"page"`
	Access          string         `yaml:"access" toml:"access" json:"access"`
	Admin           bool           `yaml:"admin" toml:"admin" json:"admin"`
	SkipPermissions bool           `yaml:"skip_permissions" toml:"skip_permissions" json:"skip_permissions"`
	CurrentUser     string         `yaml:"current_user" toml:"current_user" json:"current_user"`
	Bindings        map[string]any `yaml:"bindings" toml:"bindings" json:"bindings"`
	GroupBy         string         `yaml:"group_by" toml:"group_by" json:"group_by"`
	GroupByObject   bool           `yaml:"group_by_object" toml:"group_by_object" json:"group_by_object"`
	ExcludeInferred bool           `yaml:"exclude_inferred" toml:"exclude_inferred" json:"exclude_inferred"`
	Timeout         string         `yaml:"timeout" toml:"timeout" json:"timeout"`
}

// Request validates s and converts it. A Page overrides Offset and
// Limit: the limit becomes the page's MaxSize.
func (s RequestSpec) Request() (Request, error) {
	req := Request{
		Dialect:         strings.ToLower(strings.TrimSpace(s.Dialect)),
		Query:           s.Query,
		Sorters:         s.Sorters,
		Offset:          s.Offset,
		Limit:           s.Limit,
		Access:          s.Access,
		Admin:           s.Admin,
		SkipPermissions: s.SkipPermissions,
		CurrentUser:     s.CurrentUser,
		Bindings:        s.Bindings,
		GroupBy:         s.GroupBy,
		GroupByObject:   s.GroupByObject,
		ExcludeInferred: s.ExcludeInferred,
	}
	if req.Dialect == "" {
		req.Dialect = querysparql.Dialect
	}
	if req.Dialect != querysparql.Dialect && req.Dialect != querysolr.Dialect {
		return Request{}, fmt.Errorf("unknown dialect %q (want %s or %s)", s.Dialect, querysparql.Dialect, querysolr.Dialect)
	}

	for i, rs := range s.Rules {
		values := rs.Values
		if values == nil {
			values = []string{}
		}
		r, err := ir.NewRule(rs.Field, rs.Type, rs.Operator, values...)
		if err != nil {
			return Request{}, fmt.Errorf("rules[%d]: %w", i, err)
		}
		req.Rules = append(req.Rules, r)
	}

	if s.Page != nil {
		req.Offset, req.Skip = PageOffset(s.Page.Number, s.Page.Size, s.Page.MaxSize)
		req.Limit = s.Page.MaxSize
	}

	if s.Timeout != "" {
		d, err := time.ParseDuration(s.Timeout)
		if err != nil {
			return Request{}, fmt.Errorf("timeout: %w", err)
		}
		req.Timeout = d
	}
	return req, nil
}

// DecodeRequest decodes a request document. format is "yaml" or "toml".
// YAML decoding rejects unknown fields.
func DecodeRequest(data []byte, format string) (RequestSpec, error) {
	var spec RequestSpec
	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&spec); err != nil {
			return RequestSpec{}, fmt.Errorf("parse yaml request: %w", err)
		}
	case "toml":
		md, err := toml.Decode(string(data), &spec)
		if err != nil {
			return RequestSpec{}, fmt.Errorf("parse toml request: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return RequestSpec{}, fmt.Errorf("parse toml request: unknown key %q", undecoded[0].String())
		}
	default:
		return RequestSpec{}, fmt.Errorf("unsupported request format %q", format)
	}
	return spec, nil
}

// LoadRequest reads a request file; the format follows the extension
// (.yaml, .yml or .toml).
func LoadRequest(path string) (Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Request{}, fmt.Errorf("read request: %w", err)
	}
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	spec, err := DecodeRequest(data, format)
	if err != nil {
		return Request{}, fmt.Errorf("%s: %w", path, err)
	}
	req, err := spec.Request()
	if err != nil {
		return Request{}, fmt.Errorf("%s: %w", path, err)
	}
	return req, nil
}
