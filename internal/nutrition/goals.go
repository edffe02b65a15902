package nutrition

import (
	"math"
	"strings"
)

const (
	maleOffset        = 5.0
	femaleOffset      = -161.0
	unspecifiedOffset = -78.0 // mean of the male and female offsets

	kcalPerGramProtein = 4.0
	kcalPerGramCarbs   = 4.0
	kcalPerGramFat     = 9.0

	defaultActivityLevel = "Sedentary"
)

// BMR estimates basal metabolic rate with the Mifflin-St Jeor equation.
func BMR(weightKg, heightCm float64, age int, gender string) float64 {
	base := 10*weightKg + 6.25*heightCm - 5*float64(age)
	switch {
	case strings.EqualFold(strings.TrimSpace(gender), GenderMale):
		return base + maleOffset
	case strings.EqualFold(strings.TrimSpace(gender), GenderFemale):
		return base + femaleOffset
	default:
		return base + unspecifiedOffset
	}
}

// TDEE scales a BMR by the activity multiplier and rounds to whole kcal.
func TDEE(bmr float64, activityLevel string, cfg Config) int {
	return int(math.Round(bmr * cfg.ActivityMultiplier(activityLevel)))
}

// CalculateGoals derives daily calorie and macro targets for a profile.
// Incomplete profiles get the configured default goals with Personalized unset.
func CalculateGoals(profile UserProfile, cfg Config) NutritionGoals {
	activity := strings.TrimSpace(profile.ActivityLevel)
	if activity == "" {
		activity = defaultActivityLevel
	}

	if !profile.Complete() {
		d := cfg.DefaultGoals
		return NutritionGoals{
			Calories:      d.Calories,
			Protein:       d.Protein,
			Carbs:         d.Carbs,
			Fats:          d.Fats,
			ActivityLevel: activity,
			Personalized:  false,
		}
	}

	bmr := BMR(*profile.WeightKg, *profile.HeightCm, *profile.Age, profile.Gender)
	calories := TDEE(bmr, activity, cfg)

	switch {
	case profile.HasGoal(GoalWeightManagement):
		calories -= cfg.GoalCalorieAdjustment
	case profile.HasGoal(GoalMuscleGain):
		calories += cfg.GoalCalorieAdjustment
	}
	if calories < 0 {
		calories = 0
	}

	split := SplitFor(profile, cfg)
	kcal := float64(calories)
	return NutritionGoals{
		Calories:      calories,
		Protein:       int(math.Round(kcal * split.Protein / kcalPerGramProtein)),
		Carbs:         int(math.Round(kcal * split.Carbs / kcalPerGramCarbs)),
		Fats:          int(math.Round(kcal * split.Fats / kcalPerGramFat)),
		BMR:           int(math.Round(bmr)),
		ActivityLevel: activity,
		Personalized:  true,
	}
}

// SplitFor picks the macro split for a profile. Later rules override earlier
// ones: muscle gain / high protein, then weight management / low carb, then
// heart healthy.
func SplitFor(profile UserProfile, cfg Config) MacroSplit {
	split := cfg.BaseSplit
	if profile.HasGoal(GoalMuscleGain) || profile.HasFocus(FocusHighProtein) {
		split = cfg.HighProteinSplit
	}
	if profile.HasGoal(GoalWeightManagement) || profile.HasFocus(FocusLowCarb) {
		split = cfg.LowCarbSplit
	}
	if profile.HasFocus(FocusHeartHealthy) {
		split = cfg.HeartHealthySplit
	}
	return split
}
