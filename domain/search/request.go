// Package search defines the query and result types for semantic recall
// over the journal.
package search

import "github.com/daybook-dev/daybook/domain/journal"

// Default request values.
const (
	DefaultLimit    = 10
	DefaultMinScore = 0.0
)

// Request describes one semantic search over the index.
type Request struct {
	text        string
	limit       int
	minScore    float64
	day         string
	fromDay     string
	toDay       string
	entityTypes []journal.EntityType
}

// NewRequest creates a Request for the given query text with defaults.
// A request without WithLimit carries no limit of its own; Limit and
// LimitOr resolve the effective value.
func NewRequest(text string, options ...RequestOption) Request {
	r := Request{
		text:     text,
		minScore: DefaultMinScore,
	}
	for _, opt := range options {
		opt(&r)
	}
	return r
}

// Text returns the query text.
func (r Request) Text() string { return r.text }

// Limit returns the maximum number of results, DefaultLimit when the
// request does not set one.
func (r Request) Limit() int {
	return r.LimitOr(0)
}

// LimitOr returns the effective result limit: the request's own limit
// when set, otherwise fallback, otherwise DefaultLimit. Callers with a
// configured default pass it as fallback so an explicit WithLimit still
// wins.
func (r Request) LimitOr(fallback int) int {
	if r.limit > 0 {
		return r.limit
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultLimit
}

// MinScore returns the similarity floor; results scoring below it are
// dropped.
func (r Request) MinScore() float64 { return r.minScore }

// Day returns the exact-day filter, or "" when unset.
func (r Request) Day() string { return r.day }

// FromDay returns the inclusive lower day bound, or "" when unset.
func (r Request) FromDay() string { return r.fromDay }

// ToDay returns the inclusive upper day bound, or "" when unset.
func (r Request) ToDay() string { return r.toDay }

// EntityTypes returns the requested entity types; empty means all.
func (r Request) EntityTypes() []journal.EntityType {
	result := make([]journal.EntityType, len(r.entityTypes))
	copy(result, r.entityTypes)
	return result
}

// Matches reports whether the given day passes the request's day filters.
// Day identifiers are YYYY-MM-DD strings, so range checks are plain string
// comparisons.
func (r Request) Matches(day string) bool {
	if r.day != "" && day != r.day {
		return false
	}
	if r.fromDay != "" && day < r.fromDay {
		return false
	}
	if r.toDay != "" && day > r.toDay {
		return false
	}
	return true
}

// WantsType reports whether results of the given type were requested.
func (r Request) WantsType(t journal.EntityType) bool {
	if len(r.entityTypes) == 0 {
		return true
	}
	for _, want := range r.entityTypes {
		if want == t {
			return true
		}
	}
	return false
}

// RequestOption configures a Request.
type RequestOption func(*Request)

// WithLimit sets the maximum number of results. Values <= 0 are ignored.
func WithLimit(n int) RequestOption {
	return func(r *Request) {
		if n > 0 {
			r.limit = n
		}
	}
}

// WithMinScore sets the similarity floor.
func WithMinScore(score float64) RequestOption {
	return func(r *Request) { r.minScore = score }
}

// WithDay restricts results to an exact YYYY-MM-DD day.
func WithDay(day string) RequestOption {
	return func(r *Request) { r.day = day }
}

// WithDayRange restricts results to the inclusive [from, to] day window.
// Either bound may be "" to leave that side open.
func WithDayRange(from, to string) RequestOption {
	return func(r *Request) {
		r.fromDay = from
		r.toDay = to
	}
}

// WithEntityTypes restricts results to the given entity types.
func WithEntityTypes(types ...journal.EntityType) RequestOption {
	return func(r *Request) {
		r.entityTypes = append([]journal.EntityType(nil), types...)
	}
}
