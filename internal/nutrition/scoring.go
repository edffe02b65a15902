package nutrition

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	muscleGainMinProtein  = 30.0
	weightMgmtMaxCalories = 450.0
	weightMgmtMinProtein  = 20.0
	heartHealthMaxFats    = 15.0
	reasonFitThreshold    = 0.7
	budgetFriendlyShare   = 0.5
	fallbackExplanation   = "A balanced meal option for you."
	maxConfidence         = 100
)

// NutrientFit scores how well a meal amount covers the remaining need.
// The result is always one of 0, 0.3, 0.6, 0.8 or 1.0.
func NutrientFit(mealAmount, remaining float64) float64 {
	if remaining <= 0 {
		return 0
	}
	ratio := mealAmount / remaining
	switch {
	case ratio >= 0.5 && ratio <= 1.0:
		return 1.0
	case ratio > 1.0 && ratio <= 1.3:
		return 0.8
	case ratio >= 0.3 && ratio < 0.5:
		return 0.6
	default:
		return 0.3
	}
}

// ScoreMeal scores a single filtered template against the user's profile and
// current status. Goal alignment is capped at its configured weight even when
// several goals match; every matching goal still contributes its reason.
func ScoreMeal(meal MealTemplate, profile UserProfile, status NutritionalStatus, cfg Config) ScoredRecommendation {
	w := cfg.Weights
	var (
		score   float64
		reasons []string
	)

	proteinFit := NutrientFit(meal.Protein, status.Remaining.Protein)
	caloriesFit := NutrientFit(meal.Calories, status.Remaining.Calories)
	score += (proteinFit + caloriesFit) / 2 * w.NutrientGap

	if proteinFit > reasonFitThreshold {
		reasons = append(reasons, fmt.Sprintf("Perfect protein match (%sg fills your remaining %dg need)",
			formatAmount(meal.Protein), roundInt(status.Remaining.Protein)))
	}
	if caloriesFit > reasonFitThreshold {
		reasons = append(reasons, fmt.Sprintf("Great calorie fit (%d cal matches your remaining %d cal)",
			roundInt(meal.Calories), roundInt(status.Remaining.Calories)))
	}

	var goalScore float64
	if profile.HasGoal(GoalMuscleGain) && meal.Protein >= muscleGainMinProtein {
		goalScore += w.GoalAlignment
		reasons = append(reasons, "High protein content supports muscle gain goal")
	}
	if profile.HasGoal(GoalWeightManagement) && meal.Calories <= weightMgmtMaxCalories && meal.Protein >= weightMgmtMinProtein {
		goalScore += w.GoalAlignment
		reasons = append(reasons, "Low-calorie, high-protein meal supports weight management")
	}
	if profile.HasGoal(GoalHeartHealth) && meal.Fats <= heartHealthMaxFats {
		goalScore += w.GoalAlignment
		reasons = append(reasons, "Low in fats, good for heart health")
	}
	score += math.Min(w.GoalAlignment, goalScore)

	if len(profile.PreferredCuisines) > 0 {
		if prefersCuisine(profile.PreferredCuisines, meal.CuisineType) {
			score += w.CuisineMatch
			reasons = append(reasons, fmt.Sprintf("Matches your love for %s cuisine", meal.CuisineType))
		}
	} else {
		score += w.CuisineNeutral
	}

	// Variety has no meal-history signal yet.
	score += w.Variety

	if budget, ok := profile.Budget(); ok {
		score += math.Max(0, 1-meal.EstimatedCost/budget) * w.Budget
		if meal.EstimatedCost <= budget*budgetFriendlyShare {
			reasons = append(reasons, "Budget-friendly option")
		}
	} else {
		score += w.BudgetNeutral
	}

	confidence := roundInt(score)
	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	if confidence < 0 {
		confidence = 0
	}

	return ScoredRecommendation{
		Meal:            meal,
		ConfidenceScore: confidence,
		Reason:          Explain(meal, reasons),
		GapProtein:      status.Remaining.Protein,
		GapCalories:     status.Remaining.Calories,
	}
}

// Explain joins the triggered reasons into one sentence and appends the
// meal's rounded nutrition facts.
func Explain(meal MealTemplate, reasons []string) string {
	var b strings.Builder
	b.WriteString(meal.Name)
	b.WriteString(": ")
	if len(reasons) > 0 {
		b.WriteString(strings.Join(reasons, ". "))
		b.WriteString(".")
	} else {
		b.WriteString(fallbackExplanation)
	}
	fmt.Fprintf(&b, " Contains %d cal, %dg protein, %dg carbs, %dg fats.",
		roundInt(meal.Calories), roundInt(meal.Protein), roundInt(meal.Carbs), roundInt(meal.Fats))
	return b.String()
}

// Rank scores every candidate and returns the best limit results in
// descending score order. Equal scores keep their input order.
func Rank(candidates []MealTemplate, profile UserProfile, status NutritionalStatus, cfg Config) []ScoredRecommendation {
	scored := make([]ScoredRecommendation, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, ScoreMeal(c, profile, status, cfg))
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].ConfidenceScore > scored[j].ConfidenceScore
	})

	limit := cfg.RecommendationLimit
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// prefersCuisine matches cuisine names exactly, as stored on the profile.
func prefersCuisine(preferred []string, cuisine string) bool {
	if cuisine == "" {
		return false
	}
	for _, p := range preferred {
		if p == cuisine {
			return true
		}
	}
	return false
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
