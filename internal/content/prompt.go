package content

import (
	"regexp"
	"strings"
)

var variablePattern = regexp.MustCompile(`\{([^}]+)\}|\[([^\]]+)\]`)

// ExtractVariables returns the de-duplicated variable names found in a prompt
// template. Variables are written as {name} or [name]; order of first appearance
// is preserved.
func ExtractVariables(text string) []string {
	matches := variablePattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	variables := make([]string, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		if name == "" {
			name = m[2]
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		variables = append(variables, name)
	}
	return variables
}

// PromptStats summarizes a prompt template
type PromptStats struct {
	CharacterCount int      `json:"character_count"`
	WordCount      int      `json:"word_count"`
	LineCount      int      `json:"line_count"`
	Variables      []string `json:"variables"`
}

// AnalyzePrompt computes character, word and line counts plus detected variables
func AnalyzePrompt(text string) PromptStats {
	wordCount := 0
	if strings.TrimSpace(text) != "" {
		wordCount = len(strings.Fields(text))
	}
	return PromptStats{
		CharacterCount: len(text),
		WordCount:      wordCount,
		LineCount:      strings.Count(text, "\n") + 1,
		Variables:      ExtractVariables(text),
	}
}
