package search

import "strings"

// Excerpt lengths. Results get a sentence-or-so; theme key phrases are
// shorter.
const (
	ExcerptLength   = 150
	KeyPhraseLength = 40
)

// Excerpt produces a short display snippet from entry text: the first
// sentence when it fits within max characters, otherwise the text cut at a
// word boundary with a trailing ellipsis.
func Excerpt(text string, max int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	if sentence := firstSentence(trimmed); sentence != "" && len(sentence) <= max {
		return sentence
	}
	if len(trimmed) <= max {
		return trimmed
	}
	return truncateAtWord(trimmed, max) + "..."
}

// firstSentence returns the text up to and including the first sentence
// terminator, or "" when none is found.
func firstSentence(text string) string {
	end := strings.IndexAny(text, ".!?")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(text[:end+1])
}

// truncateAtWord cuts text to at most max characters without splitting a
// word. When the text has no space before max, it hard-cuts instead.
func truncateAtWord(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := text[:max]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " \t\n")
}
