package pipeline

import (
	"regexp"
	"strings"
)

var (
	reAsterisks  = regexp.MustCompile(`\*+`)
	reMarkdown   = regexp.MustCompile("[#_~`]")
	reBlankLines = regexp.MustCompile(`\n{3,}`)
	reSpaces     = regexp.MustCompile(` +`)
)

// CleanForSpeech strips markdown symbols a speech engine would read aloud and
// normalizes whitespace while keeping paragraph breaks.
func CleanForSpeech(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = reAsterisks.ReplaceAllString(text, "")
	text = reMarkdown.ReplaceAllString(text, "")
	text = reSpaces.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = reBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
