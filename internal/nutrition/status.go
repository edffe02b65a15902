package nutrition

import "math"

// ResolveStatus totals the meals logged for one day and computes what is left
// of each goal. Remaining values never go below zero.
func ResolveStatus(meals []LoggedMeal, goals NutritionGoals) NutritionalStatus {
	var consumed Macros
	for _, m := range meals {
		consumed.Calories += m.Calories
		consumed.Protein += m.Protein
		consumed.Carbs += m.Carbs
		consumed.Fats += m.Fats
	}

	return NutritionalStatus{
		Consumed: consumed,
		Remaining: Macros{
			Calories: remaining(goals.Calories, consumed.Calories),
			Protein:  remaining(goals.Protein, consumed.Protein),
			Carbs:    remaining(goals.Carbs, consumed.Carbs),
			Fats:     remaining(goals.Fats, consumed.Fats),
		},
		Goals:       goals,
		MealsLogged: len(meals),
	}
}

func remaining(goal int, consumed float64) float64 {
	return math.Max(0, float64(goal)-consumed)
}
