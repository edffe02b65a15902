package domain

import (
	"context"
	"fmt"
	"math"
	"time"
)

// InsightWindow is how far back the meal log is analysed for insights.
const InsightWindow = 30 * 24 * time.Hour

// Insight types.
const (
	InsightPattern    = "pattern"
	InsightSuggestion = "suggestion"
	InsightAI         = "ai"
)

const proteinBoostThreshold = 20.0

// Insight is one observation about a user's habits.
type Insight struct {
	Type    string
	Title   string
	Message string
}

// InsightsReport summarises recent logging and recommendation feedback.
type InsightsReport struct {
	Insights             []Insight
	AcceptanceRate       int
	TotalRecommendations int
	MealHistory          []MealTypeStat
}

// Insights analyses the last 30 days of meals and all recommendation feedback.
func (s *Service) Insights(ctx context.Context, userID string) (*InsightsReport, error) {
	since := s.now().UTC().Add(-InsightWindow)
	history, err := s.repo.MealTypeHistory(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("load meal history: %w", err)
	}
	stats, err := s.repo.FeedbackStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load feedback stats: %w", err)
	}
	return BuildInsights(history, stats), nil
}

// BuildInsights derives the insights report from aggregated history and feedback.
func BuildInsights(history []MealTypeStat, stats FeedbackStats) *InsightsReport {
	report := &InsightsReport{
		Insights:             []Insight{},
		TotalRecommendations: stats.Total,
		MealHistory:          history,
	}
	if stats.Total > 0 {
		report.AcceptanceRate = int(math.Round(float64(stats.Accepted) / float64(stats.Total) * 100))
	}

	if len(history) > 0 {
		most := history[0]
		for _, h := range history[1:] {
			// ties go to the later entry
			if h.Count >= most.Count {
				most = h
			}
		}
		report.Insights = append(report.Insights, Insight{
			Type:    InsightPattern,
			Title:   "Meal Logging Pattern",
			Message: fmt.Sprintf("You log %s most often (%d times in last 30 days)", most.MealType, most.Count),
		})
	}

	var proteinSum float64
	for _, h := range history {
		proteinSum += h.AvgProtein
	}
	avgProtein := proteinSum / math.Max(float64(len(history)), 1)
	if avgProtein < proteinBoostThreshold {
		report.Insights = append(report.Insights, Insight{
			Type:    InsightSuggestion,
			Title:   "Protein Boost Needed",
			Message: fmt.Sprintf("Your average protein per meal is %dg. Consider high-protein options.", int(math.Round(avgProtein))),
		})
	}

	if report.AcceptanceRate > 0 {
		report.Insights = append(report.Insights, Insight{
			Type:    InsightAI,
			Title:   "AI Learning Progress",
			Message: fmt.Sprintf("You've accepted %d%% of AI recommendations. The system is learning your preferences!", report.AcceptanceRate),
		})
	}

	return report
}
