package adaptive

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/brightmath/brightmath/internal/apperr"
	"github.com/brightmath/brightmath/internal/questionbank"
)

func TestTransition_PromoteAfterThreeCorrect(t *testing.T) {
	d := Transition(questionbank.DifficultyMedium, 3, 0)
	if d.Difficulty != questionbank.DifficultyHard {
		t.Errorf("got %q, want hard", d.Difficulty)
	}
	if !d.ResetCorrect {
		t.Error("promotion must reset the correct streak")
	}
}

func TestTransition_NoPromotionBeforeThree(t *testing.T) {
	d := Transition(questionbank.DifficultyMedium, 2, 0)
	if d.Difficulty != questionbank.DifficultyMedium || d.ResetCorrect {
		t.Errorf("streak of 2 must hold: got %+v", d)
	}
}

func TestTransition_HoldAtTopTier(t *testing.T) {
	d := Transition(questionbank.DifficultyHard, 5, 0)
	if d.Difficulty != questionbank.DifficultyHard {
		t.Errorf("got %q, want hard", d.Difficulty)
	}
	if d.ResetCorrect {
		t.Error("no tier move, no reset")
	}
}

func TestTransition_DemoteAfterTwoIncorrect(t *testing.T) {
	d := Transition(questionbank.DifficultyHard, 0, 2)
	if d.Difficulty != questionbank.DifficultyMedium {
		t.Errorf("got %q, want medium", d.Difficulty)
	}
	if !d.ResetIncorrect {
		t.Error("demotion must reset the incorrect streak")
	}
}

func TestTransition_NoDemotionBeforeTwo(t *testing.T) {
	d := Transition(questionbank.DifficultyHard, 0, 1)
	if d.Difficulty != questionbank.DifficultyHard || d.ResetIncorrect {
		t.Errorf("one wrong must hold: got %+v", d)
	}
}

func TestTransition_HoldAtBottomTier(t *testing.T) {
	d := Transition(questionbank.DifficultyEasy, 0, 4)
	if d.Difficulty != questionbank.DifficultyEasy {
		t.Errorf("got %q, want easy", d.Difficulty)
	}
}

type fakeLog struct {
	ids []string
}

func (f *fakeLog) RecentQuestionIDs(_ context.Context, _, _ string, limit int) ([]string, error) {
	if len(f.ids) > limit {
		return f.ids[:limit], nil
	}
	return f.ids, nil
}

func bankWith(skillID string, perTier int) *questionbank.Bank {
	var qs []questionbank.Question
	for _, d := range questionbank.AllDifficulties() {
		for i := 0; i < perTier; i++ {
			qs = append(qs, questionbank.Question{
				ID:         fmt.Sprintf("%s-%s-%d", skillID, d, i),
				SkillID:    skillID,
				Difficulty: d,
				Grade:      4,
				Answer:     "1",
			})
		}
	}
	return questionbank.New(qs)
}

func TestNextQuestion_CurrentTier(t *testing.T) {
	sel := NewSelector(bankWith("mult", 3), &fakeLog{}, rand.New(rand.NewSource(1)))
	q, err := sel.NextQuestion(context.Background(), "u1", "mult", questionbank.DifficultyMedium)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Difficulty != questionbank.DifficultyMedium {
		t.Errorf("got tier %q, want medium", q.Difficulty)
	}
}

func TestNextQuestion_ExcludesRecent(t *testing.T) {
	bank := bankWith("mult", 2)
	log := &fakeLog{ids: []string{"mult-medium-0"}}
	sel := NewSelector(bank, log, rand.New(rand.NewSource(1)))

	for i := 0; i < 20; i++ {
		q, err := sel.NextQuestion(context.Background(), "u1", "mult", questionbank.DifficultyMedium)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if q.ID == "mult-medium-0" {
			t.Fatal("recently answered question must be excluded")
		}
	}
}

func TestNextQuestion_EasierTierBeforeAnyTier(t *testing.T) {
	bank := bankWith("mult", 1)
	// The only medium question was just answered; easy must be chosen
	// over hard.
	log := &fakeLog{ids: []string{"mult-medium-0"}}
	sel := NewSelector(bank, log, rand.New(rand.NewSource(1)))

	for i := 0; i < 20; i++ {
		q, err := sel.NextQuestion(context.Background(), "u1", "mult", questionbank.DifficultyMedium)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if q.ID != "mult-easy-0" {
			t.Fatalf("got %q, want the easier-tier question", q.ID)
		}
	}
}

func TestNextQuestion_WidensToAnyTier(t *testing.T) {
	bank := bankWith("mult", 1)
	// All of medium and (fallback) easy recently answered; only hard left.
	log := &fakeLog{ids: []string{"mult-medium-0", "mult-easy-0"}}
	sel := NewSelector(bank, log, rand.New(rand.NewSource(1)))

	q, err := sel.NextQuestion(context.Background(), "u1", "mult", questionbank.DifficultyMedium)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.ID != "mult-hard-0" {
		t.Errorf("got %q, want the remaining hard question", q.ID)
	}
}

func TestNextQuestion_ExhaustedBank(t *testing.T) {
	bank := bankWith("mult", 1)
	log := &fakeLog{ids: []string{"mult-easy-0", "mult-medium-0", "mult-hard-0"}}
	sel := NewSelector(bank, log, rand.New(rand.NewSource(1)))

	_, err := sel.NextQuestion(context.Background(), "u1", "mult", questionbank.DifficultyMedium)
	if !apperr.Is(err, apperr.KindExhaustedBank) {
		t.Errorf("got %v, want ExhaustedBank", err)
	}
}

func TestNextQuestion_UnknownSkill(t *testing.T) {
	sel := NewSelector(bankWith("mult", 1), &fakeLog{}, nil)
	_, err := sel.NextQuestion(context.Background(), "u1", "nope", questionbank.DifficultyEasy)
	if !apperr.Is(err, apperr.KindExhaustedBank) {
		t.Errorf("got %v, want ExhaustedBank for empty pool", err)
	}
}
