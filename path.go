package contract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/contracthttp/contract/schema"
)

// pathTemplate is a parsed route pattern. Templates are made of literal
// segments, ":name" parameter segments, and at most one trailing catch-all
// segment ("*" or "*name"). Matching is case-sensitive and segment-count
// exact; only the catch-all absorbs a variable-length suffix.
type pathTemplate struct {
	raw      string
	segments []pathSegment

	// catchAll is the field name the trailing "*name" binds the remaining
	// suffix to. hasCatchAll with empty catchAll means a bare "*": match
	// anything, bind nothing.
	hasCatchAll bool
	catchAll    string
}

type pathSegment struct {
	literal string
	param   string // non-empty for ":name" segments
}

func parsePathTemplate(raw string) (*pathTemplate, error) {
	if raw == "" || raw[0] != '/' {
		return nil, fmt.Errorf("path template %q must start with /", raw)
	}

	tmpl := &pathTemplate{raw: raw}
	if raw == "/" {
		return tmpl, nil
	}

	parts := strings.Split(raw[1:], "/")
	for i, part := range parts {
		switch {
		case strings.HasPrefix(part, "*"):
			if i != len(parts)-1 {
				return nil, fmt.Errorf("path template %q: catch-all must be the last segment", raw)
			}
			tmpl.hasCatchAll = true
			tmpl.catchAll = part[1:]

		case strings.HasPrefix(part, ":"):
			name := part[1:]
			if name == "" {
				return nil, fmt.Errorf("path template %q: empty parameter name", raw)
			}
			tmpl.segments = append(tmpl.segments, pathSegment{param: name})

		case part == "":
			return nil, fmt.Errorf("path template %q: empty segment", raw)

		default:
			tmpl.segments = append(tmpl.segments, pathSegment{literal: part})
		}
	}

	return tmpl, nil
}

// params returns the parameter names the template binds, catch-all included.
func (t *pathTemplate) params() []string {
	var names []string
	for _, seg := range t.segments {
		if seg.param != "" {
			names = append(names, seg.param)
		}
	}
	if t.hasCatchAll && t.catchAll != "" {
		names = append(names, t.catchAll)
	}
	return names
}

// match tests a request path against the template and returns the raw
// string bindings for each parameter.
func (t *pathTemplate) match(path string) (map[string]string, bool) {
	var parts []string
	if path != "/" {
		if path == "" || path[0] != '/' {
			return nil, false
		}
		parts = strings.Split(path[1:], "/")
	}

	if !t.hasCatchAll && len(parts) != len(t.segments) {
		return nil, false
	}
	if t.hasCatchAll && len(parts) < len(t.segments) {
		return nil, false
	}

	binds := make(map[string]string)
	for i, seg := range t.segments {
		switch {
		case seg.param != "":
			if parts[i] == "" {
				return nil, false
			}
			binds[seg.param] = parts[i]
		case parts[i] != seg.literal:
			return nil, false
		}
	}

	if t.hasCatchAll && t.catchAll != "" {
		binds[t.catchAll] = strings.Join(parts[len(t.segments):], "/")
	}

	return binds, true
}

// resolve renders the template with encoded parameter values, the client
// side inverse of match.
func (t *pathTemplate) resolve(params map[string]any) (string, error) {
	var b strings.Builder
	for _, seg := range t.segments {
		b.WriteByte('/')
		if seg.param == "" {
			b.WriteString(seg.literal)
			continue
		}
		v, ok := params[seg.param]
		if !ok || v == nil {
			return "", fmt.Errorf("path parameter %q has no value", seg.param)
		}
		str, err := schema.FormatScalar(v)
		if err != nil {
			return "", fmt.Errorf("path parameter %q: %w", seg.param, err)
		}
		b.WriteString(url.PathEscape(str))
	}

	if t.hasCatchAll && t.catchAll != "" {
		if v, ok := params[t.catchAll]; ok && v != nil {
			str, err := schema.FormatScalar(v)
			if err != nil {
				return "", fmt.Errorf("path parameter %q: %w", t.catchAll, err)
			}
			b.WriteByte('/')
			b.WriteString(str)
		}
	}

	if b.Len() == 0 {
		return "/", nil
	}
	return b.String(), nil
}
