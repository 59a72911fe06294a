package content

import (
	"regexp"
	"strings"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// WordCount counts the words in a rich-text document, ignoring HTML markup
func WordCount(html string) int {
	text := htmlTagPattern.ReplaceAllString(html, " ")
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return len(strings.Fields(text))
}

// ReadingTimeMinutes estimates reading time at an average speed of 200 words
// per minute, rounded up. Empty documents read in zero minutes.
func ReadingTimeMinutes(wordCount int) int {
	if wordCount == 0 {
		return 0
	}
	return (wordCount + 199) / 200
}
