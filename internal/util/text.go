package util

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reHorizontalSpace = regexp.MustCompile(`[ \t\f\v\p{Zs}]+`)
	reManyBlankLines  = regexp.MustCompile(`\n{3,}`)
)

// NormalizeText prepares raw document text for chunking. It applies NFKC,
// unifies line endings, collapses horizontal whitespace and squeezes runs of
// blank lines into a single paragraph break.
func NormalizeText(value string) string {
	if value == "" {
		return value
	}

	value = strings.ToValidUTF8(value, "")
	value = strings.ReplaceAll(value, "\x00", "")
	value = norm.NFKC.String(value)
	value = strings.ReplaceAll(value, "\r\n", "\n")
	value = strings.ReplaceAll(value, "\r", "\n")

	lines := strings.Split(value, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(reHorizontalSpace.ReplaceAllString(line, " "))
	}
	value = strings.Join(lines, "\n")
	value = reManyBlankLines.ReplaceAllString(value, "\n\n")

	return strings.TrimSpace(value)
}
