// internal/routes/registry.go
package routes

import (
	"fmt"
	"strings"

	"housegate/internal/identity"
)

// Pattern is a declarative rule describing visibility and access
// requirements for a class of paths.
type Pattern struct {
	// Name is a unique identifier for the pattern
	Name string

	// Template is the path template, e.g. "/dashboard/{houseId}/billing".
	// Segments of the form {name} bind any non-empty concrete segment.
	Template string

	// Public marks the pattern as requiring no authentication
	Public bool

	// MinRole is the minimum role required for the pattern. The zero value
	// (RoleResident) admits every authenticated subject.
	MinRole identity.Role

	// ResourceScoped requires the subject to be assigned to the house named
	// by the {houseId} segment of the path
	ResourceScoped bool

	// Fallback is the redirect target for denied requests. Empty means the
	// generic authenticated home.
	Fallback string
}

// FallbackTarget returns the pattern's fallback, defaulting to the generic
// authenticated home route
func (p *Pattern) FallbackTarget() string {
	if p.Fallback != "" {
		return p.Fallback
	}
	return TargetDashboard
}

// Registry is the validated, immutable route table. It is constructed once
// at startup and passed by reference into the arbiter.
type Registry struct {
	patterns []Pattern
}

// NewRegistry validates the patterns and builds a registry. Malformed
// templates and duplicate templates are configuration errors and fail fast.
func NewRegistry(patterns []Pattern) (*Registry, error) {
	seen := make(map[string]string, len(patterns))
	for _, p := range patterns {
		if p.Name == "" {
			return nil, fmt.Errorf("route pattern with template %q has no name", p.Template)
		}
		if err := validateTemplate(p.Template); err != nil {
			return nil, fmt.Errorf("route %q: %w", p.Name, err)
		}
		if prev, ok := seen[p.Template]; ok {
			return nil, fmt.Errorf("route %q: template %q already registered by route %q", p.Name, p.Template, prev)
		}
		seen[p.Template] = p.Name
		if p.ResourceScoped && !strings.Contains(p.Template, "{"+HouseParam+"}") {
			return nil, fmt.Errorf("route %q: resource-scoped template %q has no {%s} segment", p.Name, p.Template, HouseParam)
		}
	}
	return &Registry{patterns: patterns}, nil
}

// validateTemplate checks a template's shape: it must be rooted, have no
// empty segments, and every placeholder must be well-formed
func validateTemplate(template string) error {
	if template == "" || template[0] != '/' {
		return fmt.Errorf("template %q must start with '/'", template)
	}
	params := make(map[string]bool)
	for _, seg := range strings.Split(template[1:], "/") {
		if seg == "" {
			return fmt.Errorf("template %q contains an empty segment", template)
		}
		open := strings.Contains(seg, "{")
		closed := strings.Contains(seg, "}")
		if !open && !closed {
			continue
		}
		name, ok := placeholderName(seg)
		if !ok {
			return fmt.Errorf("template %q: malformed placeholder segment %q", template, seg)
		}
		if params[name] {
			return fmt.Errorf("template %q: duplicate placeholder {%s}", template, name)
		}
		params[name] = true
	}
	return nil
}

// placeholderName extracts the parameter name from a "{name}" segment
func placeholderName(seg string) (string, bool) {
	if len(seg) < 3 || seg[0] != '{' || seg[len(seg)-1] != '}' {
		return "", false
	}
	name := seg[1 : len(seg)-1]
	if name == "" || strings.ContainsAny(name, "{}/") {
		return "", false
	}
	return name, true
}

// Match matches a concrete request path against the registry. The first
// registered pattern that matches wins. Callers must normalize trailing
// slashes before matching; no normalization happens here.
//
// An unmatched path returns (nil, nil, false), which the arbiter treats as
// implicitly public. That default-allow covers static assets and generated
// files and is not a security boundary.
func (r *Registry) Match(path string) (*Pattern, map[string]string, bool) {
	segments := strings.Split(path, "/")
	for i := range r.patterns {
		p := &r.patterns[i]
		if params, ok := matchTemplate(p.Template, segments); ok {
			return p, params, true
		}
	}
	return nil, nil, false
}

// matchTemplate matches pre-split path segments against one template.
// Lengths must match exactly; a literal segment must match byte-for-byte;
// a placeholder binds any non-empty segment.
func matchTemplate(template string, pathSegments []string) (map[string]string, bool) {
	templateSegments := strings.Split(template, "/")
	if len(templateSegments) != len(pathSegments) {
		return nil, false
	}
	var params map[string]string
	for i, ts := range templateSegments {
		ps := pathSegments[i]
		if name, ok := placeholderName(ts); ok {
			if ps == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[name] = ps
			continue
		}
		if ts != ps {
			return nil, false
		}
	}
	if params == nil {
		params = map[string]string{}
	}
	return params, true
}

// Patterns returns the registered patterns in registration order
func (r *Registry) Patterns() []Pattern {
	return r.patterns
}
