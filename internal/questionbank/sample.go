package questionbank

import (
	"math/rand"
)

// Diagnostic trim bounds: a bracket sample larger than trimUpper is cut
// to trimUpper; one larger than trimLower is cut to trimLower.
const (
	trimLower = 10
	trimUpper = 12
)

// perGradeSample is the number of questions drawn from each grade of a
// diagnostic bracket (fewer when the grade is sparse).
const perGradeSample = 4

// SampleFromGrade returns k uniformly random questions for the grade,
// without replacement, or fewer if the grade has fewer. A nil rng uses
// the process-wide source; tests pass a seeded one.
func (b *Bank) SampleFromGrade(grade, k int, rng *rand.Rand) []Question {
	return sampleK(b.byGrade[grade], k, rng)
}

// SampleBracket draws up to perGradeSample questions from each grade in
// [grade-width+1, grade], then trims: totals above trimUpper are sampled
// down to trimUpper, totals above trimLower down to trimLower, smaller
// totals are returned as sampled. A positive k caps the final size.
func (b *Bank) SampleBracket(grade, width, k int, rng *rand.Rand) []Question {
	if width <= 0 {
		width = 3
	}
	lo := grade - width + 1

	var pool []Question
	for g := lo; g <= grade; g++ {
		pool = append(pool, sampleK(b.byGrade[g], perGradeSample, rng)...)
	}

	switch {
	case len(pool) > trimUpper:
		pool = sampleK(pool, trimUpper, rng)
	case len(pool) > trimLower:
		pool = sampleK(pool, trimLower, rng)
	}
	if k > 0 && len(pool) > k {
		pool = sampleK(pool, k, rng)
	}
	return pool
}

// Sample picks k questions uniformly without replacement, preserving no
// particular order. A nil rng uses the process-wide source.
func Sample(qs []Question, k int, rng *rand.Rand) []Question {
	return sampleK(qs, k, rng)
}

// sampleK picks k elements uniformly without replacement, preserving no
// particular order.
func sampleK(qs []Question, k int, rng *rand.Rand) []Question {
	if len(qs) == 0 || k <= 0 {
		return nil
	}
	if k >= len(qs) {
		result := make([]Question, len(qs))
		copy(result, qs)
		return result
	}

	var perm []int
	if rng != nil {
		perm = rng.Perm(len(qs))
	} else {
		perm = rand.Perm(len(qs))
	}

	result := make([]Question, 0, k)
	for _, idx := range perm[:k] {
		result = append(result, qs[idx])
	}
	return result
}
