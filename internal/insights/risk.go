package insights

import (
	"context"
	"time"

	"github.com/brightmath/brightmath/internal/mastery"
)

// RiskCategory buckets an at-risk score.
type RiskCategory string

const (
	RiskLow    RiskCategory = "low"
	RiskMedium RiskCategory = "medium"
	RiskHigh   RiskCategory = "high"
)

// Risk score thresholds.
const (
	riskHighCutoff   = 60
	riskMediumCutoff = 30
)

// engagementWindow bounds the attempt history consulted for risk.
const engagementWindow = 30 * 24 * time.Hour

// AtRiskStudent is one surfaced at-risk classification.
type AtRiskStudent struct {
	StudentID string       `json:"student_id"`
	Score     int          `json:"score"`
	Category  RiskCategory `json:"category"`
	Factors   []string     `json:"factors"`
}

// DetectAtRisk scores every student in the cohort and returns the
// medium and high classifications; low-risk students are not surfaced.
func (e *Engine) DetectAtRisk(ctx context.Context, studentIDs []string) ([]AtRiskStudent, error) {
	var result []AtRiskStudent
	for _, id := range studentIDs {
		r, err := e.scoreStudent(ctx, id)
		if err != nil {
			return nil, err
		}
		if r.Category == RiskLow {
			continue
		}
		result = append(result, *r)
	}
	return result, nil
}

// scoreStudent combines engagement, accuracy, recency, and overdue
// work into a 0-100 score. Missing history contributes no accuracy
// points; it is never fabricated from zeros.
func (e *Engine) scoreStudent(ctx context.Context, studentID string) (*AtRiskStudent, error) {
	now := e.now()
	attempts, err := e.store.AttemptsSince(ctx, studentID, now.Add(-engagementWindow))
	if err != nil {
		return nil, err
	}
	lastAttempt, err := e.store.LastAttemptAt(ctx, studentID)
	if err != nil {
		return nil, err
	}

	score := 0
	var factors []string

	switch engagementLevel(attempts, now) {
	case engagementVeryLow:
		score += 30
		factors = append(factors, "Very low engagement")
	case engagementLow:
		score += 15
		factors = append(factors, "Low engagement")
	}

	if len(attempts) > 0 {
		correct := 0
		for _, a := range attempts {
			if a.Correct {
				correct++
			}
		}
		accuracy := float64(correct) / float64(len(attempts))
		switch {
		case accuracy < 0.5:
			score += 30
			factors = append(factors, "Accuracy below 50%")
		case accuracy < 0.7:
			score += 15
			factors = append(factors, "Accuracy below 70%")
		}
	}

	switch {
	case lastAttempt.IsZero() || now.Sub(lastAttempt) > 7*24*time.Hour:
		score += 25
		factors = append(factors, "No practice in 7 days")
	case len(attempts) < 2:
		score += 10
		factors = append(factors, "Fewer than 2 recent attempts")
	}

	if e.assignments != nil {
		overdue, err := e.assignments.OverdueAssignments(ctx, studentID)
		if err != nil {
			// The collaborator is advisory; log and continue without it.
			e.logger.Warn("overdue assignment lookup failed", "student", studentID, "err", err)
		} else {
			switch {
			case overdue > 2:
				score += 15
				factors = append(factors, "More than 2 overdue assignments")
			case overdue > 0:
				score += 7
				factors = append(factors, "Overdue assignments")
			}
		}
	}

	category := RiskLow
	switch {
	case score >= riskHighCutoff:
		category = RiskHigh
	case score >= riskMediumCutoff:
		category = RiskMedium
	}

	return &AtRiskStudent{
		StudentID: studentID,
		Score:     score,
		Category:  category,
		Factors:   factors,
	}, nil
}

type engagement int

const (
	engagementOK engagement = iota
	engagementLow
	engagementVeryLow
)

// engagementLevel combines attempt volume, active days, and recency
// over the engagement window.
func engagementLevel(attempts []mastery.Attempt, now time.Time) engagement {
	if len(attempts) == 0 {
		return engagementVeryLow
	}

	days := make(map[string]bool)
	latest := time.Time{}
	for _, a := range attempts {
		days[a.At.Format("2006-01-02")] = true
		if a.At.After(latest) {
			latest = a.At
		}
	}

	if len(attempts) < 5 && len(days) <= 1 {
		return engagementVeryLow
	}
	if now.Sub(latest) > 10*24*time.Hour {
		return engagementVeryLow
	}
	if len(attempts) < 20 || len(days) < 4 {
		return engagementLow
	}
	return engagementOK
}
