package sources

import (
	"regexp"
	"strings"
)

// setStatementRegex matches {% set ident = "literal" %} and {% set ident = other %}
var setStatementRegex = regexp.MustCompile(`^set\s+([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(?:"([^"]*)"|'([^']*)'|([A-Za-z_][A-Za-z0-9_]*))$`)

// templateClosers maps each opening delimiter to its closing delimiter.
var templateClosers = map[string]string{
	"{{": "}}",
	"{%": "%}",
	"{#": "#}",
}

// RenderPermissive renders a recipe's Jinja-style template markup without ever
// failing. Only string assignments are evaluated: {% set %} literals are
// substituted into {{ }} expressions, every other expression is replaced by its
// own text as a placeholder, and remaining statements and comments are dropped.
// Unterminated markup is left untouched.
func RenderPermissive(text string) string {
	vars := make(map[string]string)
	var b strings.Builder
	b.Grow(len(text))

	for len(text) > 0 {
		start := indexTemplateOpen(text)
		if start < 0 {
			b.WriteString(text)
			break
		}
		b.WriteString(text[:start])

		open := text[start : start+2]
		end := strings.Index(text[start+2:], templateClosers[open])
		if end < 0 {
			b.WriteString(text[start:])
			break
		}
		inner := trimTemplateMarkers(text[start+2 : start+2+end])
		text = text[start+2+end+2:]

		switch open {
		case "{%":
			if m := setStatementRegex.FindStringSubmatch(inner); m != nil {
				switch {
				case m[4] != "":
					vars[m[1]] = vars[m[4]]
				case m[3] != "":
					vars[m[1]] = m[3]
				default:
					vars[m[1]] = m[2]
				}
			}
		case "{{":
			b.WriteString(renderExpression(inner, vars))
		}
	}

	return b.String()
}

// indexTemplateOpen returns the index of the first template delimiter, or -1.
func indexTemplateOpen(text string) int {
	for i := 0; i+1 < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		switch text[i+1] {
		case '{', '%', '#':
			return i
		}
	}
	return -1
}

// trimTemplateMarkers strips whitespace-control dashes and surrounding spaces.
func trimTemplateMarkers(inner string) string {
	inner = strings.TrimSpace(inner)
	inner = strings.TrimPrefix(inner, "-")
	inner = strings.TrimSuffix(inner, "-")
	return strings.TrimSpace(inner)
}

// renderExpression substitutes a known variable or returns a placeholder.
// Filters are ignored.
func renderExpression(expr string, vars map[string]string) string {
	if idx := strings.Index(expr, "|"); idx >= 0 {
		expr = expr[:idx]
	}
	expr = strings.TrimSpace(expr)
	if value, ok := vars[expr]; ok {
		return value
	}
	return strings.Join(strings.Fields(expr), "")
}
