package normalize

import (
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

var (
	mdImageRegex    = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	mdLinkRegex     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdHeadingRegex  = regexp.MustCompile(`^#{1,6}\s+`)
	mdListRegex     = regexp.MustCompile(`^(?:[-*+]|\d+\.)\s+`)
	mdEmphasisRegex = regexp.MustCompile(`\*\*|__|\*|` + "`")
	mdRuleRegex     = regexp.MustCompile(`^[\s|:\-]+$`)
)

// TextFromHTML converts a rendered page into line-oriented plain text.
// The DOM is first converted to Markdown, then Markdown syntax is stripped
// so each block or table row ends up on its own line.
func TextFromHTML(html string) (string, error) {
	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(markdown, "\n") {
		line = mdImageRegex.ReplaceAllString(line, "")
		line = mdLinkRegex.ReplaceAllString(line, "$1")
		line = strings.TrimSpace(line)
		line = mdHeadingRegex.ReplaceAllString(line, "")
		line = mdListRegex.ReplaceAllString(line, "")
		line = mdEmphasisRegex.ReplaceAllString(line, "")
		if mdRuleRegex.MatchString(line) {
			continue
		}
		line = CollapseSpace(strings.ReplaceAll(line, "|", " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}
