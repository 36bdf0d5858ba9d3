package insights

import (
	"context"
	"sort"

	"github.com/brightmath/brightmath/internal/mastery"
)

// Priority ranks a recommendation or gap.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func priorityRank(p Priority) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Recommendation is one next-skill suggestion.
type Recommendation struct {
	SkillID  string   `json:"skill_id"`
	Name     string   `json:"name"`
	Grade    int      `json:"grade"`
	Priority Priority `json:"priority"`
	// Accuracy is the rolling accuracy backing the suggestion; nil for
	// not-yet-started skills.
	Accuracy *float64 `json:"accuracy,omitempty"`
	Reason   string   `json:"reason"`
}

// DefaultRecommendations caps the list when the caller passes k <= 0.
const DefaultRecommendations = 5

// Recommend produces up to k next-skill suggestions for a student at
// the given grade. Struggling in-progress skills rank highest, then
// in-progress skills short of their threshold, then unlocked unstarted
// skills at the student's grade.
func (e *Engine) Recommend(ctx context.Context, studentID string, grade, k int) ([]Recommendation, error) {
	if k <= 0 {
		k = DefaultRecommendations
	}

	states, err := e.store.StatesByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	byskill := make(map[string]mastery.State, len(states))
	masteredSet := make(map[string]bool)
	for _, st := range states {
		byskill[st.SkillID] = st
		if st.MasteryAchieved {
			masteredSet[st.SkillID] = true
		}
	}

	var recs []Recommendation
	for _, st := range states {
		if st.Status != mastery.StatusInProgress {
			continue
		}
		skill, err := e.graph.Get(st.SkillID)
		if err != nil {
			continue // state for a skill no longer in the graph
		}
		accuracy := st.RollingAccuracy
		switch {
		case accuracy < 0.7:
			recs = append(recs, Recommendation{
				SkillID:  skill.ID,
				Name:     skill.Name,
				Grade:    skill.Grade,
				Priority: PriorityHigh,
				Accuracy: &accuracy,
				Reason:   "struggling with this skill",
			})
		case accuracy < skill.Threshold:
			recs = append(recs, Recommendation{
				SkillID:  skill.ID,
				Name:     skill.Name,
				Grade:    skill.Grade,
				Priority: PriorityMedium,
				Accuracy: &accuracy,
				Reason:   "close to mastery",
			})
		}
	}

	for _, skill := range e.graph.ByGrade(grade) {
		if _, started := byskill[skill.ID]; started {
			continue
		}
		if !e.graph.IsUnlocked(skill.ID, masteredSet) {
			continue
		}
		recs = append(recs, Recommendation{
			SkillID:  skill.ID,
			Name:     skill.Name,
			Grade:    skill.Grade,
			Priority: PriorityLow,
			Reason:   "ready to start",
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		ri, rj := priorityRank(recs[i].Priority), priorityRank(recs[j].Priority)
		if ri != rj {
			return ri < rj
		}
		// Ascending accuracy within a priority; unstarted skills keep
		// graph order.
		if recs[i].Accuracy != nil && recs[j].Accuracy != nil {
			return *recs[i].Accuracy < *recs[j].Accuracy
		}
		return false
	})

	if len(recs) > k {
		recs = recs[:k]
	}
	return recs, nil
}

// Gap is one missing or weak ancestor skill found by gap analysis.
type Gap struct {
	SkillID  string   `json:"skill_id"`
	Name     string   `json:"name"`
	Grade    int      `json:"grade"`
	Priority Priority `json:"priority"`
	Accuracy *float64 `json:"accuracy,omitempty"`
	Started  bool     `json:"started"`
}

// AnalyzeGaps walks the transitive closure of every skill at the
// student's grade and reports ancestors that are unstarted or below
// their mastery threshold. Gaps more than one grade back are high
// priority.
func (e *Engine) AnalyzeGaps(ctx context.Context, studentID string, grade int) ([]Gap, error) {
	states, err := e.store.StatesByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	byskill := make(map[string]mastery.State, len(states))
	for _, st := range states {
		byskill[st.SkillID] = st
	}

	seen := make(map[string]bool)
	var gaps []Gap
	for _, skill := range e.graph.ByGrade(grade) {
		for _, ancestor := range e.graph.TransitiveClosure(skill.ID) {
			if seen[ancestor.ID] {
				continue
			}
			seen[ancestor.ID] = true

			st, started := byskill[ancestor.ID]
			if started && (st.MasteryAchieved || st.RollingAccuracy >= ancestor.Threshold) {
				continue
			}

			priority := PriorityMedium
			if ancestor.Grade < grade-1 {
				priority = PriorityHigh
			}
			g := Gap{
				SkillID:  ancestor.ID,
				Name:     ancestor.Name,
				Grade:    ancestor.Grade,
				Priority: priority,
				Started:  started,
			}
			if started {
				accuracy := st.RollingAccuracy
				g.Accuracy = &accuracy
			}
			gaps = append(gaps, g)
		}
	}
	return gaps, nil
}
