package querysparql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/searchql/internal/ir"
	"github.com/roach88/searchql/internal/queryir"
)

// permissionRe matches a placeholder and the optional variable name glued
// to it, e.g. "$permissions_block$relation".
var permissionRe = regexp.MustCompile(`\$permissions_block\$(\w*)`)

// AccessMode selects the permission template.
type AccessMode int

const (
	AccessRead AccessMode = iota
	AccessWrite
)

func (m AccessMode) String() string {
	if m == AccessWrite {
		return "write"
	}
	return "read"
}

// ParseAccessMode accepts "", "read" and "write".
func ParseAccessMode(s string) (AccessMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "read":
		return AccessRead, nil
	case "write":
		return AccessWrite, nil
	default:
		return AccessRead, fmt.Errorf("unknown access mode %q (want read or write)", s)
	}
}

// Permissions describes the permission filter for one request.
//
// Admin and Disabled both turn filtering off; Admin is the caller's role,
// Disabled is an explicit request option.
type Permissions struct {
	Templates   ir.PermissionTemplates
	Mode        AccessMode
	Admin       bool
	Disabled    bool
	CurrentUser string
}

// Template returns the template for the access mode, or "" for an admin.
func (p Permissions) Template() string {
	if p.Admin {
		return ""
	}
	if p.Mode == AccessWrite {
		return p.Templates.Write
	}
	return p.Templates.Read
}

// Filter renders the permission filter for variable. Every call draws a new
// suffix from ctx, so two filters in the same query never share names.
func (p Permissions) Filter(variable string, ctx *ir.QueryContext) string {
	return renderFilter(p.Template(), variable, ctx)
}

func renderFilter(template, name string, ctx *ir.QueryContext) string {
	if strings.TrimSpace(template) == "" {
		return ""
	}
	text := strings.ReplaceAll(template, MacroSuffix, ctx.NextSuffix())
	text = strings.ReplaceAll(text, MacroInstance, variable(name))
	return " { \n" + text + "\n } "
}

// BuildFilters renders each template for variable and concatenates the
// non-blank results.
func BuildFilters(variable string, ctx *ir.QueryContext, templates ...string) string {
	var b strings.Builder
	for _, t := range templates {
		if f := renderFilter(t, variable, ctx); strings.TrimSpace(f) != "" {
			b.WriteString(f)
		}
	}
	return b.String()
}

// InjectPermissions applies the permission filter to query.
//
// Each "$permissions_block$<var>" placeholder is replaced by a filter for
// ?<var> (?instance when no name follows). Without placeholders a single
// filter for ?instance is added at the end of the WHERE body. Placeholders
// are removed and nothing is added when filtering is off, the template is
// blank, or the query already checks sec:hasPermission.
//
// When a filter is written and CurrentUser is set, it is recorded in ctx as
// the "currentUser" binding. A template that refers to ?currentUser fails
// with MISSING_CURRENT_USER when CurrentUser is blank.
func InjectPermissions(query string, p Permissions, ctx *ir.QueryContext) (string, error) {
	if p.Disabled || strings.TrimSpace(p.Template()) == "" || strings.Contains(query, HasPermission) {
		return permissionRe.ReplaceAllString(query, ""), nil
	}

	if p.CurrentUser == "" && queryir.Mentions(p.Template(), "?"+CurrentUser) {
		return "", ir.NewMissingUserError(p.Mode.String())
	}

	var out string
	if permissionRe.MatchString(query) {
		out = permissionRe.ReplaceAllStringFunc(query, func(m string) string {
			name := permissionRe.FindStringSubmatch(m)[1]
			return p.Filter(name, ctx)
		})
	} else {
		sel, err := queryir.Parse(query)
		if err != nil {
			return "", err
		}
		sel.AddPattern(queryir.Raw{Text: p.Filter(InstanceVar, ctx)})
		out = sel.String()
	}

	if p.CurrentUser != "" {
		user, err := ir.ParseBindingValue(p.CurrentUser)
		if err != nil {
			return "", fmt.Errorf("current user: %w", err)
		}
		ctx.Bind(CurrentUser, user)
	}
	return out, nil
}
