package api

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/Alish28/NutriAI/internal/domain"
	"github.com/Alish28/NutriAI/internal/nutrition"
)

// incompleteProfileMessage accompanies default, non-personalized goals.
const incompleteProfileMessage = "Complete your profile for personalized goals"

// FeedbackRequest is the payload for POST /v1/recommendations/feedback.
type FeedbackRequest struct {
	RecommendationID string `json:"recommendation_id"`
	Accepted         *bool  `json:"accepted"`
}

// Validate ensures request correctness.
func (r FeedbackRequest) Validate() error {
	if strings.TrimSpace(r.RecommendationID) == "" {
		return errors.New("recommendation_id is required")
	}
	if r.Accepted == nil {
		return errors.New("accepted is required")
	}
	return nil
}

// FeedbackResponse acknowledges recorded feedback.
type FeedbackResponse struct {
	RecommendationID string `json:"recommendation_id"`
	Feedback         string `json:"feedback"`
	Message          string `json:"message"`
}

// RecommendationView exposes a stored recommendation.
type RecommendationView struct {
	RecommendationID string     `json:"recommendation_id"`
	MealTemplateID   string     `json:"meal_template_id"`
	MealName         string     `json:"meal_name"`
	MealType         string     `json:"meal_type"`
	Calories         float64    `json:"calories"`
	Protein          float64    `json:"protein"`
	Carbs            float64    `json:"carbs"`
	Fats             float64    `json:"fats"`
	CuisineType      string     `json:"cuisine_type,omitempty"`
	EstimatedCost    float64    `json:"estimated_cost,omitempty"`
	DietaryTags      []string   `json:"dietary_tags,omitempty"`
	Ingredients      []string   `json:"ingredients,omitempty"`
	ConfidenceScore  int        `json:"confidence_score"`
	Reason           string     `json:"reason"`
	GapProtein       float64    `json:"nutritional_gap_protein"`
	GapCalories      float64    `json:"nutritional_gap_calories"`
	RecommendedFor   string     `json:"recommended_for_date"`
	Feedback         string     `json:"feedback"`
	FeedbackAt       *time.Time `json:"feedback_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// RecommendationsResponse echoes the request parameters with the ranked meals.
type RecommendationsResponse struct {
	MealType        string               `json:"meal_type"`
	Date            string               `json:"date"`
	Count           int                  `json:"count"`
	Personalized    bool                 `json:"personalized"`
	Recommendations []RecommendationView `json:"recommendations"`
	Message         string               `json:"message,omitempty"`
}

// HistoryResponse packages paginated history.
type HistoryResponse struct {
	Items      []RecommendationView `json:"items"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

// GoalsView exposes daily nutrition targets.
type GoalsView struct {
	Calories      int    `json:"calories"`
	Protein       int    `json:"protein"`
	Carbs         int    `json:"carbs"`
	Fats          int    `json:"fats"`
	BMR           int    `json:"bmr,omitempty"`
	ActivityLevel string `json:"activity_level,omitempty"`
	Personalized  bool   `json:"personalized"`
	Message       string `json:"message,omitempty"`
}

// MacrosView is a calorie and macronutrient tuple.
type MacrosView struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

// StatusView reports a day's consumption against goals.
type StatusView struct {
	Date        string              `json:"date"`
	Consumed    MacrosView          `json:"consumed"`
	Remaining   MacrosView          `json:"remaining"`
	Goals       GoalsView           `json:"goals"`
	MealsLogged int                 `json:"meals_logged"`
	Insights    []nutrition.Insight `json:"insights"`
	Tips        []string            `json:"tips"`
}

// InsightView is one observation about a user's habits.
type InsightView struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// MealHistoryView aggregates logged meals for one meal type.
type MealHistoryView struct {
	MealType    string  `json:"meal_type"`
	Count       int     `json:"count"`
	AvgCalories float64 `json:"avg_calories"`
	AvgProtein  float64 `json:"avg_protein"`
}

// InsightsResponse is the body of GET /v1/insights.
type InsightsResponse struct {
	Insights             []InsightView     `json:"insights"`
	AcceptanceRate       int               `json:"acceptance_rate"`
	TotalRecommendations int               `json:"total_recommendations"`
	MealHistory          []MealHistoryView `json:"meal_history"`
}

func toRecommendationView(rec domain.StoredRecommendation) RecommendationView {
	m := rec.Meal
	return RecommendationView{
		RecommendationID: rec.ID,
		MealTemplateID:   m.ID,
		MealName:         m.Name,
		MealType:         m.MealType,
		Calories:         m.Calories,
		Protein:          m.Protein,
		Carbs:            m.Carbs,
		Fats:             m.Fats,
		CuisineType:      m.CuisineType,
		EstimatedCost:    m.EstimatedCost,
		DietaryTags:      m.DietaryTags,
		Ingredients:      m.Ingredients,
		ConfidenceScore:  rec.ConfidenceScore,
		Reason:           rec.Reason,
		GapProtein:       rec.GapProtein,
		GapCalories:      rec.GapCalories,
		RecommendedFor:   rec.RecommendedFor.Format(domain.DateLayout),
		Feedback:         string(rec.Feedback),
		FeedbackAt:       rec.FeedbackAt,
		CreatedAt:        rec.CreatedAt,
	}
}

func toGoalsView(g nutrition.NutritionGoals) GoalsView {
	v := GoalsView{
		Calories:      g.Calories,
		Protein:       g.Protein,
		Carbs:         g.Carbs,
		Fats:          g.Fats,
		BMR:           g.BMR,
		ActivityLevel: g.ActivityLevel,
		Personalized:  g.Personalized,
	}
	if !g.Personalized {
		v.Message = incompleteProfileMessage
	}
	return v
}

func toMacrosView(m nutrition.Macros) MacrosView {
	return MacrosView{
		Calories: round1(m.Calories),
		Protein:  round1(m.Protein),
		Carbs:    round1(m.Carbs),
		Fats:     round1(m.Fats),
	}
}

func toStatusView(d domain.DailyStatus) StatusView {
	return StatusView{
		Date:        d.Date.Format(domain.DateLayout),
		Consumed:    toMacrosView(d.Status.Consumed),
		Remaining:   toMacrosView(d.Status.Remaining),
		Goals:       toGoalsView(d.Status.Goals),
		MealsLogged: d.Status.MealsLogged,
		Insights:    d.Insights,
		Tips:        d.Tips,
	}
}

func toInsightsView(r domain.InsightsReport) InsightsResponse {
	resp := InsightsResponse{
		Insights:             make([]InsightView, 0, len(r.Insights)),
		AcceptanceRate:       r.AcceptanceRate,
		TotalRecommendations: r.TotalRecommendations,
		MealHistory:          make([]MealHistoryView, 0, len(r.MealHistory)),
	}
	for _, in := range r.Insights {
		resp.Insights = append(resp.Insights, InsightView{Type: in.Type, Title: in.Title, Message: in.Message})
	}
	for _, h := range r.MealHistory {
		resp.MealHistory = append(resp.MealHistory, MealHistoryView{
			MealType:    h.MealType,
			Count:       h.Count,
			AvgCalories: round1(h.AvgCalories),
			AvgProtein:  round1(h.AvgProtein),
		})
	}
	return resp
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
