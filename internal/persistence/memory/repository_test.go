package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Alish28/NutriAI/internal/domain"
	"github.com/Alish28/NutriAI/internal/nutrition"
)

var _ domain.Repository = (*Repository)(nil)

func TestActiveMealTemplatesSkipsInactiveAndSortsByPopularity(t *testing.T) {
	repo := NewRepository()
	repo.Seed()

	snacks, err := repo.ActiveMealTemplates(context.Background(), "snack")
	require.NoError(t, err)
	require.Len(t, snacks, 2)
	require.Equal(t, "tpl-greek-yogurt", snacks[0].ID)
	require.Equal(t, "tpl-hummus-veg", snacks[1].ID)
}

func TestLoggedMealsForDateMatchesCalendarDay(t *testing.T) {
	repo := NewRepository()
	day := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	repo.LogMeal("u1", day.Add(7*time.Hour), nutrition.LoggedMeal{MealType: "breakfast", Macros: nutrition.Macros{Calories: 300}})
	repo.LogMeal("u1", day.Add(26*time.Hour), nutrition.LoggedMeal{MealType: "lunch", Macros: nutrition.Macros{Calories: 500}})
	repo.LogMeal("u2", day, nutrition.LoggedMeal{MealType: "lunch", Macros: nutrition.Macros{Calories: 900}})

	meals, err := repo.LoggedMealsForDate(context.Background(), "u1", day)
	require.NoError(t, err)
	require.Len(t, meals, 1)
	require.Equal(t, 300.0, meals[0].Calories)
}

func TestMealTypeHistoryAverages(t *testing.T) {
	repo := NewRepository()
	now := time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)
	repo.LogMeal("u1", now, nutrition.LoggedMeal{MealType: "lunch", Macros: nutrition.Macros{Calories: 400, Protein: 30}})
	repo.LogMeal("u1", now.AddDate(0, 0, -1), nutrition.LoggedMeal{MealType: "lunch", Macros: nutrition.Macros{Calories: 600, Protein: 10}})
	repo.LogMeal("u1", now.AddDate(0, 0, -2), nutrition.LoggedMeal{MealType: "breakfast", Macros: nutrition.Macros{Calories: 300, Protein: 12}})
	repo.LogMeal("u1", now.AddDate(0, 0, -45), nutrition.LoggedMeal{MealType: "dinner", Macros: nutrition.Macros{Calories: 800, Protein: 50}})

	stats, err := repo.MealTypeHistory(context.Background(), "u1", now.AddDate(0, 0, -30))
	require.NoError(t, err)
	require.Equal(t, []domain.MealTypeStat{
		{MealType: "breakfast", Count: 1, AvgCalories: 300, AvgProtein: 12},
		{MealType: "lunch", Count: 2, AvgCalories: 500, AvgProtein: 20},
	}, stats)
}

func TestRecordFeedbackOwnershipAndPopularity(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	tpl := repo.AddTemplate(nutrition.MealTemplate{Name: "Bowl", MealType: "lunch", PopularityScore: 97, IsActive: true})

	rec := domain.StoredRecommendation{
		ID:                   "rec-1",
		UserID:               "u1",
		CreatedAt:            time.Now().UTC(),
		Feedback:             domain.FeedbackPending,
		ScoredRecommendation: nutrition.ScoredRecommendation{Meal: tpl},
	}
	require.NoError(t, repo.SaveRecommendations(ctx, []domain.StoredRecommendation{rec}))

	other, err := repo.RecordFeedback(ctx, "u2", "rec-1", true, time.Now())
	require.NoError(t, err)
	require.Nil(t, other)

	updated, err := repo.RecordFeedback(ctx, "u1", "rec-1", true, time.Now())
	require.NoError(t, err)
	require.Equal(t, domain.FeedbackAccepted, updated.Feedback)
	require.NotNil(t, updated.FeedbackAt)

	stored, ok := repo.Template(tpl.ID)
	require.True(t, ok)
	require.Equal(t, 100, stored.PopularityScore)

	stats, err := repo.FeedbackStats(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, domain.FeedbackStats{Total: 1, Accepted: 1}, stats)
}

func TestListRecommendationsPaginates(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	base := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	var recs []domain.StoredRecommendation
	for i, id := range []string{"a", "b", "c", "d", "e"} {
		recs = append(recs, domain.StoredRecommendation{ID: id, UserID: "u1", CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	recs = append(recs, domain.StoredRecommendation{ID: "z", UserID: "u2", CreatedAt: base})
	require.NoError(t, repo.SaveRecommendations(ctx, recs))

	page, next, err := repo.ListRecommendations(ctx, "u1", nil, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"e", "d"}, ids(page))
	require.NotNil(t, next)

	page, next, err = repo.ListRecommendations(ctx, "u1", next, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b"}, ids(page))

	page, next, err = repo.ListRecommendations(ctx, "u1", next, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, ids(page))
	require.Nil(t, next)
}

func ids(recs []domain.StoredRecommendation) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}
