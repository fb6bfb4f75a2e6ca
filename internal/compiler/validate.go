package compiler

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/roach88/searchql/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrAliasFieldEmpty      = "E101" // alias target field is blank
	ErrAliasNameInvalid     = "E102" // alias name is blank or has spaces
	ErrNamespacePrefix      = "E103" // prefix is not a valid SPARQL prefix name
	ErrNamespaceURI         = "E104" // namespace URI is not absolute
	ErrDuplicateName        = "E105" // duplicate namespace prefix
	ErrCaseInsensitiveBlank = "E106" // blank case-insensitive entry
	ErrTemplateMissingMacro = "E107" // permission template lacks %instance%
	ErrConnectorNameInvalid = "E108" // connector name has whitespace
)

// prefixNameRe is the SPARQL PN_PREFIX production restricted to ASCII.
var prefixNameRe = regexp.MustCompile(`^[A-Za-z]([A-Za-z0-9_.-]*[A-Za-z0-9_-])?$`)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateConfig checks a configuration spec.
// Returns all errors found (does not fail-fast).
func ValidateConfig(spec *ir.SearchConfigSpec) []ValidationError {
	var errs []ValidationError

	for _, name := range sortedAliasNames(spec.SortAliases) {
		alias := spec.SortAliases[name]
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, " \t\n") {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("sort_alias.%q", name),
				Message: "alias name must be a single non-blank word",
				Code:    ErrAliasNameInvalid,
			})
		}
		if strings.TrimSpace(alias.Field) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("sort_alias.%s.field", name),
				Message: "alias field must be non-empty",
				Code:    ErrAliasFieldEmpty,
			})
		}
	}

	for i, field := range spec.CaseInsensitive {
		if strings.TrimSpace(field) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("case_insensitive[%d]", i),
				Message: "entry must be non-empty",
				Code:    ErrCaseInsensitiveBlank,
			})
		}
	}

	prefixes := make(map[string]bool)
	for i, ns := range spec.Namespaces {
		if !prefixNameRe.MatchString(ns.Prefix) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("namespace[%d].prefix", i),
				Message: fmt.Sprintf("invalid prefix name %q", ns.Prefix),
				Code:    ErrNamespacePrefix,
			})
		}
		if prefixes[ns.Prefix] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("namespace[%d].prefix", i),
				Message: fmt.Sprintf("duplicate prefix: %q", ns.Prefix),
				Code:    ErrDuplicateName,
			})
		}
		prefixes[ns.Prefix] = true

		if u, err := url.Parse(ns.URI); err != nil || !u.IsAbs() {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("namespace.%s", ns.Prefix),
				Message: fmt.Sprintf("namespace URI %q must be absolute", ns.URI),
				Code:    ErrNamespaceURI,
			})
		}
	}

	for _, t := range []struct{ name, text string }{
		{"permissions.read", spec.Permissions.Read},
		{"permissions.write", spec.Permissions.Write},
	} {
		if strings.TrimSpace(t.text) != "" && !strings.Contains(t.text, "%instance%") {
			errs = append(errs, ValidationError{
				Field:   t.name,
				Message: "template must reference %instance%",
				Code:    ErrTemplateMissingMacro,
			})
		}
	}

	if strings.ContainsAny(spec.ConnectorName, " \t\n") {
		errs = append(errs, ValidationError{
			Field:   "connector_name",
			Message: fmt.Sprintf("connector name %q must not contain whitespace", spec.ConnectorName),
			Code:    ErrConnectorNameInvalid,
		})
	}

	return errs
}
