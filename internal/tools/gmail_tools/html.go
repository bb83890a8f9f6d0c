package gmail_tools

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	htmlTagPattern   = regexp.MustCompile(`(?i)<\s*/?\s*(html|body|div|p|br|table|span|a)\b[^>]*>`)
	lineBreakPattern = regexp.MustCompile(`(?i)<\s*br\s*/?\s*>|<\s*/\s*(p|div|tr|li|h[1-6])\s*>`)
	blankLines       = regexp.MustCompile(`\n{3,}`)

	strictPolicy = bluemonday.StrictPolicy()
)

// LooksLikeHTML reports whether s contains common HTML markup.
func LooksLikeHTML(s string) bool {
	return htmlTagPattern.MatchString(s)
}

// StripHTML reduces an HTML body to plain text. Bodies that do not look
// like HTML are returned unchanged.
func StripHTML(s string) string {
	if !LooksLikeHTML(s) {
		return s
	}
	withBreaks := lineBreakPattern.ReplaceAllString(s, "$0\n")
	text := html.UnescapeString(strictPolicy.Sanitize(withBreaks))

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	text = blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text)
}
