package service

import (
	"alcyxob/runcoach-app/internal/domain"
	"time"
)

// AnalyzeRatings derives the advisory rating annotation from recent
// ratings. Purely informational: reconciliation never reads it.
func AnalyzeRatings(ratings []domain.Rating, now time.Time) *domain.RatingAnalysis {
	if len(ratings) == 0 {
		return nil
	}

	var effortSum, feelSum int
	for _, r := range ratings {
		effortSum += r.Effort
		feelSum += r.Feel
	}
	avgEffort := float64(effortSum) / float64(len(ratings))
	avgFeel := float64(feelSum) / float64(len(ratings))

	summary := "training load looks balanced"
	switch {
	case avgEffort >= 4 && avgFeel <= 2.5:
		summary = "recent runs felt very hard; consider easing off"
	case avgEffort <= 2 && avgFeel >= 4:
		summary = "recent runs felt comfortable; there may be room to push"
	case avgFeel <= 2:
		summary = "recent runs felt rough; watch recovery"
	}

	return &domain.RatingAnalysis{
		AverageEffort: avgEffort,
		AverageFeel:   avgFeel,
		SampleSize:    len(ratings),
		Summary:       summary,
		ComputedAt:    now.UTC(),
	}
}
