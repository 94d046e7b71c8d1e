package markdown

import (
	"regexp"
	"strings"
)

var (
	htmlComment  = regexp.MustCompile(`(?s)<!--.*?-->`)
	codeFence    = regexp.MustCompile("(?s)```[\\w+-]*\\n?(.*?)```")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	images       = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	horizontal   = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	blockquote   = regexp.MustCompile(`(?m)^>\s*`)
	listMarkers  = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numbered     = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	taskBoxes    = regexp.MustCompile(`(?m)^\[[ xX]\]\s+`)
	manyNewlines = regexp.MustCompile(`\n{3,}`)
)

// Text strips Markdown formatting from an issue or comment body. Code is
// kept without its fences; images and issue-template comments are dropped.
func Text(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	content = htmlComment.ReplaceAllString(content, "")
	content = codeFence.ReplaceAllString(content, "$1")
	content = inlineCode.ReplaceAllString(content, "$1")

	content = images.ReplaceAllString(content, "")
	content = links.ReplaceAllString(content, "$1")

	content = headings.ReplaceAllString(content, "")
	content = horizontal.ReplaceAllString(content, "")
	content = blockquote.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "")
	content = numbered.ReplaceAllString(content, "")
	content = taskBoxes.ReplaceAllString(content, "")

	// Emphasis markers. Single underscores stay: they are usually part of
	// identifiers.
	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "__", "")
	content = strings.ReplaceAll(content, "*", "")

	content = manyNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
