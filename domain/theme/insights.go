package theme

import (
	"fmt"
	"strings"
)

// Insights renders one observation per theme, most frequent first.
func Insights(themes []Theme) []string {
	insights := make([]string, 0, len(themes))
	for _, t := range themes {
		times := "times"
		if t.Size() == 1 {
			times = "time"
		}
		insights = append(insights, fmt.Sprintf("%q has come up %d %s", t.KeyPhrase(), t.Size(), times))
	}
	return insights
}

// Summary renders a one-line overview of the identified themes.
func Summary(themes []Theme) string {
	if len(themes) == 0 {
		return "No recurring themes found yet."
	}
	phrases := make([]string, 0, len(themes))
	for _, t := range themes {
		phrases = append(phrases, t.KeyPhrase())
	}
	return fmt.Sprintf("Found %d recurring themes: %s", len(themes), strings.Join(phrases, "; "))
}
