// Package nutrition contains the meal recommendation engine: goal calculation,
// daily nutritional status, candidate filtering and multi-factor scoring.
//
// Everything in this package is a pure function of its inputs. Callers load
// profiles, meal logs and templates and pass them in; nothing here performs I/O
// or keeps state between calls.
package nutrition

import "strings"

// Health goal and nutrition focus tags recognised by the engine.
const (
	GoalMuscleGain       = "Muscle Gain"
	GoalWeightManagement = "Weight Management"
	GoalHeartHealth      = "Heart Health"

	FocusHighProtein  = "High Protein"
	FocusLowCarb      = "Low Carb"
	FocusHeartHealthy = "Heart Healthy"
)

// Gender values with a dedicated BMR offset. Anything else uses the averaged offset.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// UserProfile is the read-only view of a user the engine scores against.
// Nil biometric fields mean the value was never provided.
type UserProfile struct {
	UserID             string
	Age                *int
	WeightKg           *float64
	HeightCm           *float64
	Gender             string
	ActivityLevel      string
	HealthGoals        []string
	NutritionFocus     []string
	DietaryPreferences []string
	Allergies          []string
	PreferredCuisines  []string
	DailyBudget        *float64
}

// Complete reports whether the biometric fields needed for a BMR estimate are present.
func (p UserProfile) Complete() bool {
	return p.Age != nil && *p.Age > 0 &&
		p.WeightKg != nil && *p.WeightKg > 0 &&
		p.HeightCm != nil && *p.HeightCm > 0 &&
		strings.TrimSpace(p.Gender) != ""
}

// HasGoal reports whether the profile lists the given health goal.
func (p UserProfile) HasGoal(goal string) bool {
	return containsTag(p.HealthGoals, goal)
}

// HasFocus reports whether the profile lists the given nutrition focus.
func (p UserProfile) HasFocus(focus string) bool {
	return containsTag(p.NutritionFocus, focus)
}

// Budget returns the daily budget and whether one is set. Zero or negative
// budgets count as unset.
func (p UserProfile) Budget() (float64, bool) {
	if p.DailyBudget == nil || *p.DailyBudget <= 0 {
		return 0, false
	}
	return *p.DailyBudget, true
}

// NutritionGoals are the daily targets derived from a profile.
type NutritionGoals struct {
	Calories      int
	Protein       int
	Carbs         int
	Fats          int
	BMR           int
	ActivityLevel string
	// Personalized is false when the profile was incomplete and defaults were used.
	Personalized bool
}

// Macros is a calorie and macronutrient tuple in kcal and grams.
type Macros struct {
	Calories float64
	Protein  float64
	Carbs    float64
	Fats     float64
}

// LoggedMeal is one entry from a user's meal log.
type LoggedMeal struct {
	MealType string
	Name     string
	Macros
}

// NutritionalStatus summarises a user's day against their goals.
type NutritionalStatus struct {
	Consumed    Macros
	Remaining   Macros
	Goals       NutritionGoals
	MealsLogged int
}

// MealTemplate is a catalog entry that can be recommended.
type MealTemplate struct {
	ID              string
	Name            string
	MealType        string
	Calories        float64
	Protein         float64
	Carbs           float64
	Fats            float64
	DietaryTags     []string
	Ingredients     []string
	CuisineType     string
	EstimatedCost   float64
	PopularityScore int
	IsActive        bool
}

// ScoredRecommendation is a candidate template with its score and explanation.
type ScoredRecommendation struct {
	Meal            MealTemplate
	ConfidenceScore int
	Reason          string
	// Remaining need at scoring time, kept for feedback analysis.
	GapProtein  float64
	GapCalories float64
}

func containsTag(values []string, tag string) bool {
	for _, v := range values {
		if v == tag {
			return true
		}
	}
	return false
}
