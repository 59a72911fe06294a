package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordCount(t *testing.T) {
	assert.Equal(t, 5, WordCount("<p>one two <b>three</b> four five</p>"))
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 0, WordCount("<div><br/></div>"))
}

func TestReadingTimeMinutes(t *testing.T) {
	assert.Equal(t, 0, ReadingTimeMinutes(0))
	assert.Equal(t, 1, ReadingTimeMinutes(1))
	assert.Equal(t, 1, ReadingTimeMinutes(200))
	assert.Equal(t, 2, ReadingTimeMinutes(201))
	assert.Equal(t, 5, ReadingTimeMinutes(1000))
}

func TestWordCountMatchesReadingTime(t *testing.T) {
	html := "<p>" + strings.Repeat("word ", 450) + "</p>"
	words := WordCount(html)
	assert.Equal(t, 450, words)
	assert.Equal(t, 3, ReadingTimeMinutes(words))
}
