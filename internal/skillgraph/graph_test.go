package skillgraph

import (
	"testing"
)

// testSkills builds a small three-grade fixture:
//
//	counting(3) -> addition(3) -> multiplication(4) -> division(4) -> fractions(5)
//	measurement(5) has no prerequisites.
func testSkills() []Skill {
	return []Skill{
		{ID: "counting", Name: "Counting", Grade: 3, Subject: SubjectNumberPlace},
		{ID: "addition", Name: "Addition", Grade: 3, Subject: SubjectAddSub, Prerequisites: []string{"counting"}},
		{ID: "multiplication", Name: "Multiplication", Grade: 4, Subject: SubjectMultDiv, Prerequisites: []string{"addition"}},
		{ID: "division", Name: "Division", Grade: 4, Subject: SubjectMultDiv, Prerequisites: []string{"multiplication"}},
		{ID: "fractions", Name: "Fractions", Grade: 5, Subject: SubjectFractions, Prerequisites: []string{"division"}},
		{ID: "measurement", Name: "Measurement", Grade: 5, Subject: SubjectMeasurement},
	}
}

func mustLoad(t *testing.T) *Graph {
	t.Helper()
	g, err := Load(testSkills())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return g
}

func TestGet_Exists(t *testing.T) {
	g := mustLoad(t)
	s, err := g.Get("addition")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Name != "Addition" {
		t.Errorf("got name %q, want %q", s.Name, "Addition")
	}
	if s.Grade != 3 {
		t.Errorf("got grade %d, want 3", s.Grade)
	}
	if s.Threshold != DefaultMasteryThreshold {
		t.Errorf("got threshold %f, want default %f", s.Threshold, DefaultMasteryThreshold)
	}
}

func TestGet_NotFound(t *testing.T) {
	g := mustLoad(t)
	if _, err := g.Get("nonexistent"); err == nil {
		t.Fatal("expected error for nonexistent skill, got nil")
	}
}

func TestPrerequisites(t *testing.T) {
	g := mustLoad(t)
	prereqs := g.Prerequisites("multiplication")
	if len(prereqs) != 1 || prereqs[0].ID != "addition" {
		t.Errorf("Prerequisites(multiplication): got %v, want [addition]", prereqs)
	}
	if got := g.Prerequisites("counting"); len(got) != 0 {
		t.Errorf("Prerequisites(counting): got %v, want empty", got)
	}
}

func TestTransitiveClosure_TopologicallyOrdered(t *testing.T) {
	g := mustLoad(t)
	closure := g.TransitiveClosure("fractions")

	want := []string{"counting", "addition", "multiplication", "division"}
	if len(closure) != len(want) {
		t.Fatalf("closure size: got %d, want %d", len(closure), len(want))
	}
	for i, id := range want {
		if closure[i].ID != id {
			t.Errorf("closure[%d]: got %q, want %q", i, closure[i].ID, id)
		}
	}
}

func TestTransitiveClosure_Root(t *testing.T) {
	g := mustLoad(t)
	if got := g.TransitiveClosure("measurement"); len(got) != 0 {
		t.Errorf("closure of root skill: got %d skills, want 0", len(got))
	}
}

func TestByGrade(t *testing.T) {
	g := mustLoad(t)
	if got := len(g.ByGrade(4)); got != 2 {
		t.Errorf("ByGrade(4): got %d skills, want 2", got)
	}
	if got := len(g.ByGrade(6)); got != 0 {
		t.Errorf("ByGrade(6): got %d skills, want 0", got)
	}
}

func TestBracket(t *testing.T) {
	g := mustLoad(t)

	// Width 3 at grade 5 covers grades 3-5: all six skills.
	if got := len(g.Bracket(5, 3)); got != 6 {
		t.Errorf("Bracket(5, 3): got %d skills, want 6", got)
	}
	// Width 1 at grade 4 covers grade 4 only.
	if got := len(g.Bracket(4, 1)); got != 2 {
		t.Errorf("Bracket(4, 1): got %d skills, want 2", got)
	}
	// Lower bound clamps to the minimum grade present.
	if got := len(g.Bracket(3, 3)); got != 2 {
		t.Errorf("Bracket(3, 3): got %d skills, want 2", got)
	}
}

func TestBracket_GradeOrder(t *testing.T) {
	g := mustLoad(t)
	skills := g.Bracket(5, 3)
	for i := 1; i < len(skills); i++ {
		if skills[i].Grade < skills[i-1].Grade {
			t.Errorf("bracket out of grade order: %q (grade %d) after %q (grade %d)",
				skills[i].ID, skills[i].Grade, skills[i-1].ID, skills[i-1].Grade)
		}
	}
}

func TestIsUnlocked(t *testing.T) {
	g := mustLoad(t)
	mastered := map[string]bool{"counting": true}

	if !g.IsUnlocked("addition", mastered) {
		t.Error("addition should be unlocked with counting mastered")
	}
	if g.IsUnlocked("multiplication", mastered) {
		t.Error("multiplication should be locked without addition mastered")
	}
	if !g.IsUnlocked("measurement", nil) {
		t.Error("root skill should always be unlocked")
	}
	if g.IsUnlocked("nonexistent", mastered) {
		t.Error("unknown skill should not report unlocked")
	}
}

func TestTopologicalOrder_RespectsEdges(t *testing.T) {
	g := mustLoad(t)
	pos := make(map[string]int)
	for i, s := range g.TopologicalOrder() {
		pos[s.ID] = i
	}
	for _, s := range testSkills() {
		for _, prereq := range s.Prerequisites {
			if pos[prereq] >= pos[s.ID] {
				t.Errorf("prerequisite %q not before %q in topological order", prereq, s.ID)
			}
		}
	}
}
