package ir

import (
	"fmt"
	"slices"
	"strings"
)

// Namespace is one PREFIX declaration.
type Namespace struct {
	Prefix string `yaml:"prefix" toml:"prefix" json:"prefix"`
	URI    string `yaml:"uri" toml:"uri" json:"uri"`
}

// PermissionTemplates is the filter template pair supplied by the permission
// subsystem. Templates may use the %instance% and %suffix% macros.
type PermissionTemplates struct {
	Read  string `yaml:"read" toml:"read" json:"read"`
	Write string `yaml:"write" toml:"write" json:"write"`
}

// SearchConfigSpec is the mutable input used to build a SearchConfig.
type SearchConfigSpec struct {
	SortAliases     map[string]Sorter
	CaseInsensitive []string
	Namespaces      []Namespace
	Permissions     PermissionTemplates
	RankingField    string
	TitleProperty   string
	ConnectorName   string
}

// SearchConfig is the process-wide static configuration of the compiler.
//
// It is immutable: fields are unexported and accessors return copies.
// Reconfiguration means building a new SearchConfig and swapping the whole
// pointer (see pipeline.ConfigHolder).
type SearchConfig struct {
	sortAliases     map[string]Sorter
	caseInsensitive map[string]struct{}
	namespaces      []Namespace
	permissions     PermissionTemplates
	rankingField    string
	titleProperty   string
	connectorName   string
}

// Defaults used when a spec leaves a field empty.
const (
	DefaultRankingField  = "solr:score"
	DefaultTitleProperty = "emf:altTitle"
	DefaultConnectorName = "fts"
)

// NewSearchConfig validates spec and builds an immutable SearchConfig.
func NewSearchConfig(spec SearchConfigSpec) (*SearchConfig, error) {
	cfg := &SearchConfig{
		sortAliases:     make(map[string]Sorter, len(spec.SortAliases)),
		caseInsensitive: make(map[string]struct{}, len(spec.CaseInsensitive)),
		namespaces:      make([]Namespace, 0, len(spec.Namespaces)),
		permissions:     spec.Permissions,
		rankingField:    orDefault(spec.RankingField, DefaultRankingField),
		titleProperty:   orDefault(spec.TitleProperty, DefaultTitleProperty),
		connectorName:   orDefault(spec.ConnectorName, DefaultConnectorName),
	}

	for name, s := range spec.SortAliases {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("sort alias name must not be empty")
		}
		if strings.TrimSpace(s.Field) == "" {
			return nil, fmt.Errorf("sort alias %q: field must not be empty", name)
		}
		cfg.sortAliases[name] = s
	}

	for _, f := range spec.CaseInsensitive {
		if strings.TrimSpace(f) == "" {
			return nil, fmt.Errorf("case-insensitive field must not be empty")
		}
		cfg.caseInsensitive[f] = struct{}{}
	}

	seen := make(map[string]bool, len(spec.Namespaces))
	for i, ns := range spec.Namespaces {
		if ns.Prefix == "" || ns.URI == "" {
			return nil, fmt.Errorf("namespaces[%d]: prefix and uri are required", i)
		}
		if seen[ns.Prefix] {
			return nil, fmt.Errorf("namespaces[%d]: duplicate prefix %q", i, ns.Prefix)
		}
		seen[ns.Prefix] = true
		cfg.namespaces = append(cfg.namespaces, ns)
	}

	return cfg, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// SortAlias resolves a legacy sort key. The lookup is exact.
func (c *SearchConfig) SortAlias(name string) (Sorter, bool) {
	s, ok := c.sortAliases[name]
	return s, ok
}

// IsCaseInsensitive reports whether sorting on field compares lower-cased values.
func (c *SearchConfig) IsCaseInsensitive(field string) bool {
	_, ok := c.caseInsensitive[field]
	return ok
}

// Namespaces returns the namespace table in declaration order.
func (c *SearchConfig) Namespaces() []Namespace {
	return slices.Clone(c.namespaces)
}

// Permissions returns the permission filter templates.
func (c *SearchConfig) Permissions() PermissionTemplates { return c.permissions }

// RankingField is the score variable used for the relevance sort key.
func (c *SearchConfig) RankingField() string { return c.rankingField }

// TitleProperty is the property read from related entities in object sorts.
func (c *SearchConfig) TitleProperty() string { return c.titleProperty }

// ConnectorName replaces $connectorName$ in query templates.
func (c *SearchConfig) ConnectorName() string { return c.connectorName }

// Spec returns a deep copy of the configuration as a mutable spec.
// Use it to derive a modified configuration for copy-and-swap reloads.
func (c *SearchConfig) Spec() SearchConfigSpec {
	aliases := make(map[string]Sorter, len(c.sortAliases))
	for k, v := range c.sortAliases {
		aliases[k] = v
	}
	ci := make([]string, 0, len(c.caseInsensitive))
	for f := range c.caseInsensitive {
		ci = append(ci, f)
	}
	slices.Sort(ci)
	return SearchConfigSpec{
		SortAliases:     aliases,
		CaseInsensitive: ci,
		Namespaces:      c.Namespaces(),
		Permissions:     c.permissions,
		RankingField:    c.rankingField,
		TitleProperty:   c.titleProperty,
		ConnectorName:   c.connectorName,
	}
}

// DefaultNamespaces is the namespace table used when no registry is supplied.
func DefaultNamespaces() []Namespace {
	return []Namespace{
		{Prefix: "dcterms", URI: "http://purl.org/dc/terms/"},
		{Prefix: "emf", URI: "http://ittruse.ittbg.com/ontology/enterpriseManagementFramework#"},
		{Prefix: "owl", URI: "http://www.w3.org/2002/07/owl#"},
		{Prefix: "rdf", URI: "http://www.w3.org/1999/02/22-rdf-syntax-ns#"},
		{Prefix: "rdfs", URI: "http://www.w3.org/2000/01/rdf-schema#"},
		{Prefix: "xsd", URI: "http://www.w3.org/2001/XMLSchema#"},
		{Prefix: "skos", URI: "http://www.w3.org/2004/02/skos/core#"},
		{Prefix: "ptop", URI: "http://www.ontotext.com/proton/protontop#"},
		{Prefix: "sec", URI: "http://www.sirma.com/ontologies/2014/11/security#"},
		{Prefix: "solr", URI: "http://www.ontotext.com/connectors/solr#"},
		{Prefix: "solr-inst", URI: "http://www.ontotext.com/connectors/solr/instance#"},
	}
}

// DefaultSortAliases maps the legacy friendly sort names to properties.
func DefaultSortAliases() map[string]Sorter {
	return map[string]Sorter{
		"modifiedOn": {Field: "emf:modifiedOn"},
		"modifiedBy": {Field: "emf:modifiedBy", ObjectProperty: true},
		"title":      {Field: "dcterms:title"},
		"createdOn":  {Field: "emf:createdOn"},
		"createdBy":  {Field: "emf:createdBy", ObjectProperty: true},
	}
}

// DefaultSearchConfig returns the built-in configuration.
func DefaultSearchConfig() *SearchConfig {
	cfg, err := NewSearchConfig(SearchConfigSpec{
		SortAliases:     DefaultSortAliases(),
		CaseInsensitive: []string{"dcterms:title", "emf:altTitle"},
		Namespaces:      DefaultNamespaces(),
	})
	if err != nil {
		panic(err)
	}
	return cfg
}
