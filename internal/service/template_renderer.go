package service

import (
	"regexp"
)

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// TemplateRenderer substitutes {key} placeholders in reminder templates
type TemplateRenderer struct{}

// NewTemplateRenderer creates a new template renderer
func NewTemplateRenderer() *TemplateRenderer {
	return &TemplateRenderer{}
}

// Render replaces every {key} with vars[key].
// Placeholders without a matching variable are left as-is.
func (r *TemplateRenderer) Render(body string, vars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(body, func(match string) string {
		key := match[1 : len(match)-1]
		if value, ok := vars[key]; ok {
			return value
		}
		return match
	})
}

// Placeholders lists the distinct placeholder keys in order of first appearance
func (r *TemplateRenderer) Placeholders(body string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(body, -1)

	seen := make(map[string]bool, len(matches))
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		keys = append(keys, m[1])
	}

	return keys
}
