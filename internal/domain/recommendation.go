package domain

import (
	"context"
	"strings"
	"time"

	"github.com/Alish28/NutriAI/internal/nutrition"
)

// Meal types accepted by the recommendation endpoints.
const (
	MealTypeBreakfast = "breakfast"
	MealTypeLunch     = "lunch"
	MealTypeDinner    = "dinner"
	MealTypeSnack     = "snack"
)

// DateLayout is the calendar date format used by requests and the meal log.
const DateLayout = "2006-01-02"

// NormalizeMealType lower-cases and trims a meal type, returning
// ErrInvalidMealType when it is not one of the known values.
func NormalizeMealType(raw string) (string, error) {
	mt := strings.ToLower(strings.TrimSpace(raw))
	switch mt {
	case MealTypeBreakfast, MealTypeLunch, MealTypeDinner, MealTypeSnack:
		return mt, nil
	default:
		return "", ErrInvalidMealType
	}
}

// ParseDate parses a YYYY-MM-DD date. An empty value means today in UTC.
func ParseDate(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// FeedbackState tracks whether a stored recommendation was acted on.
type FeedbackState string

const (
	FeedbackPending  FeedbackState = "pending"
	FeedbackAccepted FeedbackState = "accepted"
	FeedbackRejected FeedbackState = "rejected"
)

// StoredRecommendation is a recommendation as persisted for history and feedback.
type StoredRecommendation struct {
	ID             string
	UserID         string
	RecommendedFor time.Time
	CreatedAt      time.Time
	Feedback       FeedbackState
	FeedbackAt     *time.Time
	nutrition.ScoredRecommendation
}

// Cursor models the history pagination token.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// MealTypeStat aggregates a user's meal log for one meal type.
type MealTypeStat struct {
	MealType    string
	Count       int
	AvgCalories float64
	AvgProtein  float64
}

// FeedbackStats counts a user's stored recommendations by outcome.
type FeedbackStats struct {
	Total    int
	Accepted int
	Rejected int
}

// ProfileReader loads user profiles. A missing user yields nil, nil.
type ProfileReader interface {
	GetUserProfile(ctx context.Context, userID string) (*nutrition.UserProfile, error)
}

// MealLogReader reads a user's logged meals.
type MealLogReader interface {
	LoggedMealsForDate(ctx context.Context, userID string, date time.Time) ([]nutrition.LoggedMeal, error)
	MealTypeHistory(ctx context.Context, userID string, since time.Time) ([]MealTypeStat, error)
}

// TemplateCatalog lists active meal templates, most popular first.
type TemplateCatalog interface {
	ActiveMealTemplates(ctx context.Context, mealType string) ([]nutrition.MealTemplate, error)
}

// RecommendationStore persists served recommendations and their feedback.
type RecommendationStore interface {
	SaveRecommendations(ctx context.Context, recs []StoredRecommendation) error
	// RecordFeedback returns nil, nil when the recommendation does not exist
	// or belongs to another user.
	RecordFeedback(ctx context.Context, userID, recommendationID string, accepted bool, at time.Time) (*StoredRecommendation, error)
	ListRecommendations(ctx context.Context, userID string, cursor *Cursor, limit int) ([]StoredRecommendation, *Cursor, error)
	FeedbackStats(ctx context.Context, userID string) (FeedbackStats, error)
}

// Repository is the full set of persistence operations the service needs.
type Repository interface {
	ProfileReader
	MealLogReader
	TemplateCatalog
	RecommendationStore
}
