// Package journal holds the entry types that the memory index is built
// over: messages and notes, each attached to a journal day.
package journal

import "regexp"

// dayPattern matches day identifiers in YYYY-MM-DD form. Days are kept as
// plain strings throughout so that range filtering reduces to lexicographic
// comparison.
var dayPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidDay reports whether s is a well-formed YYYY-MM-DD day identifier.
func ValidDay(s string) bool {
	return dayPattern.MatchString(s)
}
