package textutil

import (
	"html"
	"regexp"
	"strings"
)

var (
	htmlTitle    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	htmlDropped  = regexp.MustCompile(`(?is)<(script|style|noscript|head|svg|template)\b[^>]*>.*?</(script|style|noscript|head|svg|template)>`)
	htmlComments = regexp.MustCompile(`(?s)<!--.*?-->`)
	htmlBreaks   = regexp.MustCompile(`(?i)</?(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article|header|footer|ul|ol)\b[^>]*>`)
	htmlCells    = regexp.MustCompile(`(?i)</t[dh]>`)
	htmlTags     = regexp.MustCompile(`<[^>]+>`)
	spaceRuns    = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
)

// HTMLTitle returns the decoded <title> of a page, or "".
func HTMLTitle(page string) string {
	m := htmlTitle.FindStringSubmatch(page)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(spaceRuns.ReplaceAllString(m[1], " ")))
}

// HTMLToText strips markup and returns readable text with one block
// element per line.
func HTMLToText(page string) string {
	page = htmlDropped.ReplaceAllString(page, "")
	page = htmlComments.ReplaceAllString(page, "")
	page = htmlBreaks.ReplaceAllString(page, "\n")
	page = htmlCells.ReplaceAllString(page, " ")
	page = htmlTags.ReplaceAllString(page, "")
	page = html.UnescapeString(page)
	page = spaceRuns.ReplaceAllString(page, " ")

	var lines []string
	for _, line := range strings.Split(page, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
