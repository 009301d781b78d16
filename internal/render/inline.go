package render

import (
	"html"
	"regexp"
)

var (
	boldPattern   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicPattern = regexp.MustCompile(`\*([^*]+)\*`)
	linkPattern   = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
)

func escape(s string) string { return html.EscapeString(s) }

// inlineHTML applies the inline formatting allowed in text blocks. The input
// is escaped first and markup applied after, in a fixed order, so injected
// markup cannot bypass escaping.
func inlineHTML(s string) string {
	out := escape(s)
	out = boldPattern.ReplaceAllString(out, "<strong>$1</strong>")
	out = italicPattern.ReplaceAllString(out, "<em>$1</em>")
	out = linkPattern.ReplaceAllString(out, `<a href="$2">$1</a>`)
	return out
}
