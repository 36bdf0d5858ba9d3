// Package scorer canonicalizes and compares submitted answers.
//
// Scoring is deterministic and purely textual: the bank is authored so
// that expected and submitted forms match after canonicalization. There
// is no numeric tolerance or fraction/decimal coercion.
package scorer

import (
	"strings"

	"github.com/brightmath/brightmath/internal/apperr"
	"github.com/brightmath/brightmath/internal/questionbank"
)

// Canonicalize applies the normalization rules, in order:
// trim outer whitespace, collapse internal whitespace runs to one
// space, lowercase ASCII letters, strip a single trailing period.
func Canonicalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), " ")

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	s = b.String()

	return strings.TrimSuffix(s, ".")
}

// Score compares a submitted answer against the question's expected
// answer. Returns InvalidAnswer when the submission is empty after
// canonicalization.
func Score(q questionbank.Question, submitted string) (bool, error) {
	canonical := Canonicalize(submitted)
	if canonical == "" {
		return false, apperr.E(apperr.KindInvalidAnswer, "submitted answer is empty")
	}
	return canonical == Canonicalize(q.Answer), nil
}
