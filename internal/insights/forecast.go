package insights

import (
	"context"
	"time"
)

// Trend describes the direction of a student's recent accuracy.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// Confidence qualifies a forecast by how much data backs it.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
)

const (
	// DefaultForecastDays is the attempt window when the caller does not
	// specify one.
	DefaultForecastDays = 30
	maxForecastDays     = 90

	trendEpsilon  = 0.05
	forecastDelta = 0.05
)

// Forecast projects a student's near-term accuracy from the last
// month of attempts. InsufficientData is set, and the other fields
// zeroed, when there is not enough history to project from.
type Forecast struct {
	StudentID        string     `json:"student_id"`
	InsufficientData bool       `json:"insufficient_data"`
	CurrentAccuracy  float64    `json:"current_accuracy,omitempty"`
	ForecastAccuracy float64    `json:"forecast_accuracy,omitempty"`
	Trend            Trend      `json:"trend,omitempty"`
	Confidence       Confidence `json:"confidence,omitempty"`
}

type weekBucket struct {
	attempts int
	correct  int
}

func (b weekBucket) accuracy() float64 {
	return float64(b.correct) / float64(b.attempts)
}

// ForecastPerformance buckets the last days of attempts into weeks,
// reads the trend from the recent buckets against the older ones, and
// projects the current accuracy one step in that direction. days <= 0
// uses the default window.
func (e *Engine) ForecastPerformance(ctx context.Context, studentID string, days int) (*Forecast, error) {
	if days <= 0 {
		days = DefaultForecastDays
	}
	if days > maxForecastDays {
		days = maxForecastDays
	}

	now := e.now()
	attempts, err := e.store.AttemptsSince(ctx, studentID, now.Add(-time.Duration(days)*24*time.Hour))
	if err != nil {
		return nil, err
	}
	if len(attempts) == 0 {
		return &Forecast{StudentID: studentID, InsufficientData: true}, nil
	}

	// Week 0 is the current week, higher indexes are older.
	numWeeks := (days + 6) / 7
	weeks := make([]weekBucket, numWeeks)
	total := weekBucket{}
	for _, a := range attempts {
		age := now.Sub(a.At)
		idx := int(age / (7 * 24 * time.Hour))
		if idx < 0 || idx >= numWeeks {
			continue
		}
		weeks[idx].attempts++
		total.attempts++
		if a.Correct {
			weeks[idx].correct++
			total.correct++
		}
	}
	if total.attempts == 0 {
		return &Forecast{StudentID: studentID, InsufficientData: true}, nil
	}

	var recent, older weekBucket
	dataBuckets := 0
	for i, w := range weeks {
		if w.attempts == 0 {
			continue
		}
		dataBuckets++
		if i < 2 {
			recent.attempts += w.attempts
			recent.correct += w.correct
		} else {
			older.attempts += w.attempts
			older.correct += w.correct
		}
	}

	current := total.accuracy()

	// The trend compares pooled accuracy (correct over attempts summed
	// across the two newest buckets versus the rest), so weeks weigh in
	// proportion to how much the student practiced.
	trend := TrendStable
	if recent.attempts > 0 && older.attempts > 0 {
		diff := recent.accuracy() - older.accuracy()
		switch {
		case diff > trendEpsilon:
			trend = TrendImproving
		case diff < -trendEpsilon:
			trend = TrendDeclining
		}
	}

	forecast := current
	switch trend {
	case TrendImproving:
		forecast = clamp01(current + forecastDelta)
	case TrendDeclining:
		forecast = clamp01(current - forecastDelta)
	}

	confidence := ConfidenceMedium
	if dataBuckets < 3 {
		confidence = ConfidenceLow
	}

	return &Forecast{
		StudentID:        studentID,
		CurrentAccuracy:  current,
		ForecastAccuracy: forecast,
		Trend:            trend,
		Confidence:       confidence,
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
