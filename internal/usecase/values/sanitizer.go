package values

import "strings"

// timePeriodTerms is the lexicon of relative and absolute time-period phrases
// excluded from value search. Embedding such terms spuriously matches
// timestamp-adjacent columns and degrades precision.
var timePeriodTerms = []string{
	"today", "yesterday", "tomorrow",
	"last week", "last month", "last year", "last quarter",
	"this week", "this month", "this year", "this quarter",
	"next week", "next month", "next year", "next quarter",
	"q1", "q2", "q3", "q4",
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
	"jan", "feb", "mar", "apr", "jun", "jul", "aug", "sep", "oct", "nov", "dec",
}

// isTimePeriodTerm reports whether the term contains any time-period phrase,
// case-insensitively.
func isTimePeriodTerm(term string) bool {
	lower := strings.ToLower(term)
	for _, t := range timePeriodTerms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// SanitizeTerms keeps only terms worth embedding: at least two characters and
// free of time-period phrases.
func SanitizeTerms(terms []string) []string {
	var out []string
	for _, term := range terms {
		if len(term) < 2 || isTimePeriodTerm(term) {
			continue
		}
		out = append(out, term)
	}
	return out
}
