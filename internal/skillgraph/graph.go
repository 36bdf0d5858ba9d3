// Package skillgraph holds the immutable skill DAG and its lookups.
//
// The graph is built once at startup from the seeded skill set and is
// read-only afterwards, so it may be shared across requests without
// synchronization.
package skillgraph

import (
	"fmt"
	"slices"
	"sort"

	"github.com/brightmath/brightmath/internal/apperr"
)

// Graph holds the skill DAG with precomputed indices.
type Graph struct {
	skills     []Skill
	byID       map[string]*Skill
	byGrade    map[int][]Skill
	dependents map[string][]string
	topoOrder  []Skill
	topoIndex  map[string]int
	minGrade   int
	maxGrade   int
}

// Load validates the skill set and builds the graph indices, including a
// topological order (Kahn's algorithm). It rejects dangling prerequisites,
// cycles, and thresholds outside [0,1].
func Load(skills []Skill) (*Graph, error) {
	if err := validateSkills(skills); err != nil {
		return nil, err
	}

	g := &Graph{
		skills:     slices.Clone(skills),
		byID:       make(map[string]*Skill, len(skills)),
		byGrade:    make(map[int][]Skill),
		dependents: make(map[string][]string),
		topoIndex:  make(map[string]int, len(skills)),
	}

	for i := range g.skills {
		if g.skills[i].Threshold == 0 {
			g.skills[i].Threshold = DefaultMasteryThreshold
		}
		g.byID[g.skills[i].ID] = &g.skills[i]
	}

	// Reverse edges (dependents).
	for i := range g.skills {
		for _, prereqID := range g.skills[i].Prerequisites {
			g.dependents[prereqID] = append(g.dependents[prereqID], g.skills[i].ID)
		}
	}

	// Topological sort (Kahn's algorithm). validateSkills already
	// guaranteed acyclicity, so every node is visited.
	inDegree := make(map[string]int, len(skills))
	for i := range g.skills {
		inDegree[g.skills[i].ID] = len(g.skills[i].Prerequisites)
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		g.topoOrder = append(g.topoOrder, *g.byID[id])

		deps := slices.Clone(g.dependents[id])
		sort.Strings(deps)
		for _, depID := range deps {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}
	for i, s := range g.topoOrder {
		g.topoIndex[s.ID] = i
	}

	// Group by grade, preserving seed insertion order within a grade.
	g.minGrade = g.skills[0].Grade
	g.maxGrade = g.skills[0].Grade
	for i := range g.skills {
		s := g.skills[i]
		g.byGrade[s.Grade] = append(g.byGrade[s.Grade], s)
		if s.Grade < g.minGrade {
			g.minGrade = s.Grade
		}
		if s.Grade > g.maxGrade {
			g.maxGrade = s.Grade
		}
	}

	return g, nil
}

// Get returns a skill by ID.
func (g *Graph) Get(id string) (Skill, error) {
	s, ok := g.byID[id]
	if !ok {
		return Skill{}, apperr.E(apperr.KindNotFound, "skill not found: %q", id)
	}
	return *s, nil
}

// Has reports whether the graph contains the skill.
func (g *Graph) Has(id string) bool {
	_, ok := g.byID[id]
	return ok
}

// All returns every skill in the graph in seed order.
func (g *Graph) All() []Skill {
	return slices.Clone(g.skills)
}

// Len returns the number of skills in the graph.
func (g *Graph) Len() int { return len(g.skills) }

// MinGrade returns the lowest grade present in the graph.
func (g *Graph) MinGrade() int { return g.minGrade }

// Prerequisites returns the direct prerequisite skills for a skill ID,
// in declaration order.
func (g *Graph) Prerequisites(id string) []Skill {
	s, ok := g.byID[id]
	if !ok {
		return nil
	}
	result := make([]Skill, 0, len(s.Prerequisites))
	for _, prereqID := range s.Prerequisites {
		if p, ok := g.byID[prereqID]; ok {
			result = append(result, *p)
		}
	}
	return result
}

// Dependents returns skills that directly depend on the given skill ID.
func (g *Graph) Dependents(id string) []Skill {
	depIDs := g.dependents[id]
	result := make([]Skill, 0, len(depIDs))
	for _, depID := range depIDs {
		if s, ok := g.byID[depID]; ok {
			result = append(result, *s)
		}
	}
	return result
}

// TransitiveClosure returns every ancestor of the skill (direct and
// indirect prerequisites), topologically ordered so that a prerequisite
// always appears before any skill that depends on it.
func (g *Graph) TransitiveClosure(id string) []Skill {
	s, ok := g.byID[id]
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	var visit func(sk *Skill)
	visit = func(sk *Skill) {
		for _, prereqID := range sk.Prerequisites {
			if seen[prereqID] {
				continue
			}
			seen[prereqID] = true
			if p, ok := g.byID[prereqID]; ok {
				visit(p)
			}
		}
	}
	visit(s)

	result := make([]Skill, 0, len(seen))
	for _, t := range g.topoOrder {
		if seen[t.ID] {
			result = append(result, t)
		}
	}
	return result
}

// ByGrade returns all skills for a grade, in seed insertion order.
func (g *Graph) ByGrade(grade int) []Skill {
	return slices.Clone(g.byGrade[grade])
}

// Bracket returns skills whose grade falls in
// [max(minGrade, grade-width+1), grade], in grade-then-insertion order.
// Width defaults to DefaultBracketWidth when zero.
func (g *Graph) Bracket(grade, width int) []Skill {
	if width <= 0 {
		width = DefaultBracketWidth
	}
	lo := grade - width + 1
	if lo < g.minGrade {
		lo = g.minGrade
	}
	var result []Skill
	for gr := lo; gr <= grade; gr++ {
		result = append(result, g.byGrade[gr]...)
	}
	return result
}

// IsUnlocked reports whether every direct prerequisite of the skill is in
// the mastered set.
func (g *Graph) IsUnlocked(id string, mastered map[string]bool) bool {
	s, ok := g.byID[id]
	if !ok {
		return false
	}
	for _, prereqID := range s.Prerequisites {
		if !mastered[prereqID] {
			return false
		}
	}
	return true
}

// TopologicalOrder returns all skills in a valid topological order.
func (g *Graph) TopologicalOrder() []Skill {
	return slices.Clone(g.topoOrder)
}

// String describes the graph for logs.
func (g *Graph) String() string {
	return fmt.Sprintf("skillgraph(%d skills, grades %d-%d)", len(g.skills), g.minGrade, g.maxGrade)
}
