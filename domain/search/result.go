package search

import "github.com/daybook-dev/daybook/domain/memory"

// Result is one ranked search hit. Rank is 1-based and dense within a
// result set.
type Result struct {
	rank    int
	score   float64
	ref     memory.Ref
	day     string
	title   string
	excerpt string
	text    string
}

// NewResult creates a Result.
func NewResult(rank int, score float64, ref memory.Ref, day, title, excerpt, text string) Result {
	return Result{
		rank:    rank,
		score:   score,
		ref:     ref,
		day:     day,
		title:   title,
		excerpt: excerpt,
		text:    text,
	}
}

// Rank returns the 1-based position within the result set.
func (r Result) Rank() int { return r.rank }

// Score returns the cosine similarity to the query.
func (r Result) Score() float64 { return r.score }

// Ref returns the matched entry's reference.
func (r Result) Ref() memory.Ref { return r.ref }

// Day returns the matched entry's YYYY-MM-DD day.
func (r Result) Day() string { return r.day }

// Title returns the note title, or "" for messages.
func (r Result) Title() string { return r.title }

// Excerpt returns the short display snippet.
func (r Result) Excerpt() string { return r.excerpt }

// Text returns the full matched text.
func (r Result) Text() string { return r.text }

// WithRank returns a copy with the rank replaced.
func (r Result) WithRank(rank int) Result {
	r.rank = rank
	return r
}
