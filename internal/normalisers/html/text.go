package html

import (
	"html"
	"regexp"
	"strings"
)

// rewrite is one substitution applied to cooked HTML, in order.
type rewrite struct {
	re   *regexp.Regexp
	with string
}

var rewrites = []rewrite{
	// Elements whose content is never prose.
	{regexp.MustCompile(`(?is)<(script|style|noscript|head|svg)\b[^>]*>.*?</(?:script|style|noscript|head|svg)>`), ""},
	{regexp.MustCompile(`(?s)<!--.*?-->`), ""},

	// Quote header ("<avatar> user:") above a quoted blockquote.
	{regexp.MustCompile(`(?is)<div class="title">.*?</div>\s*(<blockquote)`), "$1"},
	// Filename and dimensions overlay of an uploaded image.
	{regexp.MustCompile(`(?is)<div class="meta">.*?</div>`), ""},
	// Emoji images carry their shortcode in alt.
	{regexp.MustCompile(`(?i)<img[^>]*\bclass="emoji[^"]*"[^>]*\balt="([^"]*)"[^>]*>`), "$1"},

	{regexp.MustCompile(`(?i)</t[dh]>`), " "},
	{regexp.MustCompile(`(?i)<(?:br|hr)\s*/?>|</?(?:p|div|h[1-6]|li|ul|ol|tr|blockquote|pre|table|section|article|aside)\b[^>]*>`), "\n"},
	{regexp.MustCompile(`<[^>]+>`), ""},
}

var blanks = regexp.MustCompile(`[ \t\x{00a0}]+`)

// Text reduces a post's cooked HTML to plain text, one block per line.
func Text(cooked string) string {
	if cooked == "" {
		return ""
	}
	for _, r := range rewrites {
		cooked = r.re.ReplaceAllString(cooked, r.with)
	}
	cooked = blanks.ReplaceAllString(html.UnescapeString(cooked), " ")

	lines := strings.Split(cooked, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
