package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightmath/brightmath/internal/skillgraph"
)

func TestDefault_LoadsAndValidates(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.NotEmpty(t, c.Skills)
	assert.NotEmpty(t, c.Questions)

	// Every skill gets a usable threshold.
	for _, s := range c.Skills {
		assert.Equal(t, skillgraph.DefaultMasteryThreshold, s.Threshold, "skill %s", s.ID)
	}

	// The seed must cover every grade and subject it claims to.
	grades := make(map[int]bool)
	subjects := make(map[skillgraph.Subject]bool)
	for _, s := range c.Skills {
		grades[s.Grade] = true
		subjects[s.Subject] = true
	}
	for g := 1; g <= 5; g++ {
		assert.True(t, grades[g], "no skills for grade %d", g)
	}
	for _, subj := range skillgraph.AllSubjects() {
		assert.True(t, subjects[subj], "no skills for subject %s", subj)
	}

	// The embedded skills must load into a valid graph.
	g, err := skillgraph.Load(c.Skills)
	require.NoError(t, err)
	assert.Equal(t, len(c.Skills), g.Len())

	// Every skill needs at least one question to be practicable.
	bySkill := make(map[string]int)
	for _, q := range c.Questions {
		bySkill[q.SkillID]++
	}
	for _, s := range c.Skills {
		assert.Greater(t, bySkill[s.ID], 0, "skill %s has no questions", s.ID)
	}
}

func TestParse_RejectsSchemaViolations(t *testing.T) {
	good := `[{"id": "a", "name": "A", "grade": 1, "subject": "fractions"}]`
	goodQs := `[{"id": "q", "skill_id": "a", "difficulty": "easy", "grade": 1, "prompt": "?", "answer": "1"}]`

	_, err := Parse([]byte(good), []byte(goodQs))
	require.NoError(t, err)

	cases := []struct {
		name      string
		skills    string
		questions string
	}{
		{"grade out of range", `[{"id": "a", "name": "A", "grade": 9, "subject": "fractions"}]`, goodQs},
		{"unknown subject", `[{"id": "a", "name": "A", "grade": 1, "subject": "geometry"}]`, goodQs},
		{"missing answer", good, `[{"id": "q", "skill_id": "a", "difficulty": "easy", "grade": 1, "prompt": "?"}]`},
		{"bad difficulty", good, `[{"id": "q", "skill_id": "a", "difficulty": "extreme", "grade": 1, "prompt": "?", "answer": "1"}]`},
		{"not json", `{`, goodQs},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.skills), []byte(tc.questions))
			assert.Error(t, err)
		})
	}
}

func TestParse_RejectsDanglingReferences(t *testing.T) {
	skills := `[{"id": "a", "name": "A", "grade": 1, "subject": "fractions", "prerequisites": ["ghost"]}]`
	qs := `[{"id": "q", "skill_id": "a", "difficulty": "easy", "grade": 1, "prompt": "?", "answer": "1"}]`
	_, err := Parse([]byte(skills), []byte(qs))
	assert.Error(t, err, "dangling prerequisite must fail graph validation")

	skills = `[{"id": "a", "name": "A", "grade": 1, "subject": "fractions"}]`
	qs = `[{"id": "q", "skill_id": "ghost", "difficulty": "easy", "grade": 1, "prompt": "?", "answer": "1"}]`
	_, err = Parse([]byte(skills), []byte(qs))
	assert.Error(t, err, "question referencing an unknown skill must fail")
}
