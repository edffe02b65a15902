package nutrition

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMacroInsightThresholds(t *testing.T) {
	cases := []struct {
		actual float64
		status string
		msg    string
	}{
		{2000, InsightExcellent, "Perfect! You're right on target with your calories."},
		{2200, InsightWarning, "You're 200 calories over your calories goal."},
		{2400, InsightOver, "You've exceeded your calories goal by 400 calories."},
		{1700, InsightGood, "You're 300 calories away from your calories goal."},
		{1000, InsightUnder, "Try to consume 1000 more calories of calories today."},
	}
	for _, tc := range cases {
		in := MacroInsight("calories", tc.actual, 2000)
		require.Equal(t, tc.status, in.Status, "actual=%v", tc.actual)
		require.Equal(t, tc.msg, in.Message)
	}

	protein := MacroInsight("protein", 60, 150)
	require.Equal(t, 40, protein.Percentage)
	require.Equal(t, "Try to consume 90 more g of protein today.", protein.Message)

	require.Equal(t, InsightExcellent, MacroInsight("fats", 0, 0).Status)
	require.Equal(t, InsightOver, MacroInsight("fats", 10, 0).Status)
}

func TestDailyTips(t *testing.T) {
	goals := NutritionGoals{Calories: 2000, Protein: 150, Carbs: 250, Fats: 65}

	empty := DailyTips(ResolveStatus(nil, goals))
	require.Equal(t, []string{
		"Consider adding a healthy snack to meet your calorie goal.",
		"Add more protein to your meals (eggs, chicken, tofu, legumes).",
		"Add healthy fats (avocado, nuts, olive oil) to your diet.",
	}, empty)

	balanced := ResolveStatus([]LoggedMeal{{Macros: Macros{Calories: 1900, Protein: 130, Carbs: 240, Fats: 60}}}, goals)
	require.Equal(t, []string{"Excellent! Your nutrition is well-balanced today."}, DailyTips(balanced))

	over := ResolveStatus([]LoggedMeal{{Macros: Macros{Calories: 2500, Protein: 160, Carbs: 320, Fats: 60}}}, goals)
	require.Equal(t, []string{
		"You've exceeded your calorie goal. Try lighter options for your next meal.",
		"Great job hitting your protein goal!",
		"Consider reducing carbs in your next meal.",
	}, DailyTips(over))

	require.Len(t, StatusInsights(over), 4)
}
