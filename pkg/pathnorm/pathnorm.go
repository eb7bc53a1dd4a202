// Package pathnorm normalizes JAX-RS path templates.
package pathnorm

import "strings"

// Normalize trims leading and trailing slashes and removes the regular
// expression of {name: regex} templates. An escaped \} inside the regex does
// not close the template.
func Normalize(path string) string {
	out := make([]rune, 0, len(path))
	inTemplate := false
	skipping := false
	depth := 0 // braces opened inside a regex
	var last rune
	for _, r := range path {
		switch {
		case !inTemplate && r == '{':
			inTemplate = true
		case inTemplate && !skipping && r == ':':
			skipping = true
			for len(out) > 0 && out[len(out)-1] == ' ' {
				out = out[:len(out)-1]
			}
		case skipping && r == '{' && last != '\\':
			depth++
		case inTemplate && r == '}' && last != '\\':
			if depth > 0 {
				depth--
				break
			}
			inTemplate = false
			skipping = false
		}
		if !skipping {
			out = append(out, r)
		}
		last = r
	}
	return strings.Trim(strings.TrimSpace(string(out)), "/")
}

// Join normalizes and joins the non-blank pieces with single slashes.
func Join(pieces ...string) string {
	parts := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if strings.TrimSpace(p) == "" || p == "/" {
			continue
		}
		if n := Normalize(p); n != "" {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, "/")
}

// ApplicationPath returns the first non-empty application path, normalized.
func ApplicationPath(paths ...string) string {
	for _, p := range paths {
		if n := Normalize(p); n != "" {
			return n
		}
	}
	return ""
}
