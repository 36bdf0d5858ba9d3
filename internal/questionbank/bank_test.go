package questionbank

import (
	"fmt"
	"math/rand"
	"testing"
)

// fixtureQuestions builds n questions per (skill, difficulty) pair.
func fixtureQuestions(skillID string, grade, n int, difficulties ...Difficulty) []Question {
	var qs []Question
	for _, d := range difficulties {
		for i := 0; i < n; i++ {
			qs = append(qs, Question{
				ID:         fmt.Sprintf("%s-%s-%d", skillID, d, i),
				SkillID:    skillID,
				Difficulty: d,
				Grade:      grade,
				Prompt:     fmt.Sprintf("prompt %d", i),
				Answer:     "42",
			})
		}
	}
	return qs
}

func TestBySkill(t *testing.T) {
	b := New(fixtureQuestions("mult", 4, 2, DifficultyEasy, DifficultyMedium))
	if got := len(b.BySkill("mult")); got != 4 {
		t.Errorf("BySkill: got %d, want 4", got)
	}
	if got := len(b.BySkill("nope")); got != 0 {
		t.Errorf("BySkill(unknown): got %d, want 0", got)
	}
}

func TestBySkillDifficulty_Exact(t *testing.T) {
	b := New(fixtureQuestions("mult", 4, 3, DifficultyEasy, DifficultyMedium, DifficultyHard))
	qs := b.BySkillDifficulty("mult", DifficultyMedium)
	if len(qs) != 3 {
		t.Fatalf("got %d questions, want 3", len(qs))
	}
	for _, q := range qs {
		if q.Difficulty != DifficultyMedium {
			t.Errorf("got difficulty %q, want medium", q.Difficulty)
		}
	}
}

func TestBySkillDifficulty_FallbackPrefersEasier(t *testing.T) {
	qs := fixtureQuestions("mult", 4, 2, DifficultyEasy, DifficultyHard)
	b := New(qs)

	// Medium is empty; easy and hard both exist. Easier wins.
	got := b.BySkillDifficulty("mult", DifficultyMedium)
	if len(got) == 0 {
		t.Fatal("expected fallback questions, got none")
	}
	for _, q := range got {
		if q.Difficulty != DifficultyEasy {
			t.Errorf("fallback chose %q, want easy", q.Difficulty)
		}
	}
}

func TestBySkillDifficulty_FallbackFromHard(t *testing.T) {
	b := New(fixtureQuestions("mult", 4, 2, DifficultyEasy))
	got := b.BySkillDifficulty("mult", DifficultyHard)
	if len(got) != 2 {
		t.Fatalf("got %d questions, want 2", len(got))
	}
	for _, q := range got {
		if q.Difficulty != DifficultyEasy {
			t.Errorf("fallback chose %q, want easy", q.Difficulty)
		}
	}
}

func TestBySkillDifficulty_AllEmpty(t *testing.T) {
	b := New(nil)
	if got := b.BySkillDifficulty("mult", DifficultyMedium); got != nil {
		t.Errorf("empty bank: got %v, want nil", got)
	}
}

func TestDifficultyOrdering(t *testing.T) {
	if d, ok := DifficultyEasy.Harder(); !ok || d != DifficultyMedium {
		t.Errorf("easy.Harder(): got %q %v", d, ok)
	}
	if d, ok := DifficultyHard.Harder(); ok {
		t.Errorf("hard.Harder(): got %q, want no next tier", d)
	}
	if d, ok := DifficultyMedium.Easier(); !ok || d != DifficultyEasy {
		t.Errorf("medium.Easier(): got %q %v", d, ok)
	}
	if d, ok := DifficultyEasy.Easier(); ok {
		t.Errorf("easy.Easier(): got %q, want no previous tier", d)
	}
}

func TestSampleFromGrade_NoDuplicates(t *testing.T) {
	b := New(fixtureQuestions("mult", 4, 5, DifficultyEasy, DifficultyMedium))
	rng := rand.New(rand.NewSource(7))

	qs := b.SampleFromGrade(4, 6, rng)
	if len(qs) != 6 {
		t.Fatalf("got %d questions, want 6", len(qs))
	}
	seen := make(map[string]bool)
	for _, q := range qs {
		if seen[q.ID] {
			t.Errorf("question %q sampled twice", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestSampleFromGrade_FewerThanK(t *testing.T) {
	b := New(fixtureQuestions("mult", 4, 2, DifficultyEasy))
	qs := b.SampleFromGrade(4, 10, rand.New(rand.NewSource(1)))
	if len(qs) != 2 {
		t.Errorf("got %d questions, want all 2", len(qs))
	}
}

func TestSampleFromGrade_Reproducible(t *testing.T) {
	b := New(fixtureQuestions("mult", 4, 10, DifficultyEasy, DifficultyMedium))

	a := b.SampleFromGrade(4, 5, rand.New(rand.NewSource(99)))
	c := b.SampleFromGrade(4, 5, rand.New(rand.NewSource(99)))
	if len(a) != len(c) {
		t.Fatalf("sample sizes differ: %d vs %d", len(a), len(c))
	}
	for i := range a {
		if a[i].ID != c[i].ID {
			t.Errorf("seeded samples diverge at %d: %q vs %q", i, a[i].ID, c[i].ID)
		}
	}
}

func TestSampleBracket_TrimToTen(t *testing.T) {
	// Three grades with plenty of questions: 4 per grade = 12 > 10,
	// trimmed to 10.
	var qs []Question
	qs = append(qs, fixtureQuestions("g3", 3, 6, DifficultyEasy)...)
	qs = append(qs, fixtureQuestions("g4", 4, 6, DifficultyEasy)...)
	qs = append(qs, fixtureQuestions("g5", 5, 6, DifficultyEasy)...)
	b := New(qs)

	got := b.SampleBracket(5, 3, 0, rand.New(rand.NewSource(3)))
	if len(got) != 10 {
		t.Errorf("got %d questions, want 10", len(got))
	}
}

func TestSampleBracket_TrimToTwelve(t *testing.T) {
	// Four grades: 16 sampled > 12, trimmed to 12.
	var qs []Question
	for g := 2; g <= 5; g++ {
		qs = append(qs, fixtureQuestions(fmt.Sprintf("g%d", g), g, 6, DifficultyEasy)...)
	}
	b := New(qs)

	got := b.SampleBracket(5, 4, 0, rand.New(rand.NewSource(3)))
	if len(got) != 12 {
		t.Errorf("got %d questions, want 12", len(got))
	}
}

func TestSampleBracket_SparseBankReturnsAll(t *testing.T) {
	var qs []Question
	qs = append(qs, fixtureQuestions("g3", 3, 2, DifficultyEasy)...)
	qs = append(qs, fixtureQuestions("g5", 5, 3, DifficultyEasy)...)
	b := New(qs)

	got := b.SampleBracket(5, 3, 0, rand.New(rand.NewSource(3)))
	if len(got) != 5 {
		t.Errorf("got %d questions, want all 5", len(got))
	}
}

func TestSampleBracket_NoDuplicates(t *testing.T) {
	var qs []Question
	qs = append(qs, fixtureQuestions("g3", 3, 6, DifficultyEasy)...)
	qs = append(qs, fixtureQuestions("g4", 4, 6, DifficultyEasy)...)
	qs = append(qs, fixtureQuestions("g5", 5, 6, DifficultyEasy)...)
	b := New(qs)

	got := b.SampleBracket(5, 3, 0, rand.New(rand.NewSource(11)))
	seen := make(map[string]bool)
	for _, q := range got {
		if seen[q.ID] {
			t.Errorf("question %q appears twice in one diagnostic", q.ID)
		}
		seen[q.ID] = true
	}
}
