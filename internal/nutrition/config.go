package nutrition

// MacroSplit is the share of daily calories assigned to each macronutrient.
type MacroSplit struct {
	Protein float64 `yaml:"protein"`
	Carbs   float64 `yaml:"carbs"`
	Fats    float64 `yaml:"fats"`
}

// DefaultGoals are served when a profile lacks the biometrics for a BMR estimate.
type DefaultGoals struct {
	Calories int `yaml:"calories"`
	Protein  int `yaml:"protein"`
	Carbs    int `yaml:"carbs"`
	Fats     int `yaml:"fats"`
}

// ScoringWeights sets the maximum contribution of each scoring factor.
type ScoringWeights struct {
	NutrientGap    float64 `yaml:"nutrient_gap"`
	GoalAlignment  float64 `yaml:"goal_alignment"`
	CuisineMatch   float64 `yaml:"cuisine_match"`
	CuisineNeutral float64 `yaml:"cuisine_neutral"`
	Variety        float64 `yaml:"variety"`
	Budget         float64 `yaml:"budget"`
	BudgetNeutral  float64 `yaml:"budget_neutral"`
}

// Config is the explicit configuration map the engine runs against.
type Config struct {
	DefaultGoals              DefaultGoals       `yaml:"default_goals"`
	ActivityMultipliers       map[string]float64 `yaml:"activity_multipliers"`
	DefaultActivityMultiplier float64            `yaml:"default_activity_multiplier"`
	GoalCalorieAdjustment     int                `yaml:"goal_calorie_adjustment"`
	BaseSplit                 MacroSplit         `yaml:"base_split"`
	HighProteinSplit          MacroSplit         `yaml:"high_protein_split"`
	LowCarbSplit              MacroSplit         `yaml:"low_carb_split"`
	HeartHealthySplit         MacroSplit         `yaml:"heart_healthy_split"`
	Weights                   ScoringWeights     `yaml:"weights"`
	RecommendationLimit       int                `yaml:"recommendation_limit"`
}

// DefaultConfig returns a fresh copy of the stock engine configuration.
func DefaultConfig() Config {
	return Config{
		DefaultGoals: DefaultGoals{Calories: 2000, Protein: 150, Carbs: 250, Fats: 65},
		ActivityMultipliers: map[string]float64{
			"Sedentary":         1.2,
			"Lightly Active":    1.375,
			"Moderately Active": 1.55,
			"Very Active":       1.725,
			"Extremely Active":  1.9,
		},
		DefaultActivityMultiplier: 1.2,
		GoalCalorieAdjustment:     300,
		BaseSplit:                 MacroSplit{Protein: 0.30, Carbs: 0.40, Fats: 0.30},
		HighProteinSplit:          MacroSplit{Protein: 0.35, Carbs: 0.35, Fats: 0.30},
		LowCarbSplit:              MacroSplit{Protein: 0.30, Carbs: 0.30, Fats: 0.40},
		HeartHealthySplit:         MacroSplit{Protein: 0.25, Carbs: 0.45, Fats: 0.30},
		Weights: ScoringWeights{
			NutrientGap:    40,
			GoalAlignment:  25,
			CuisineMatch:   15,
			CuisineNeutral: 10,
			Variety:        10,
			Budget:         10,
			BudgetNeutral:  5,
		},
		RecommendationLimit: 3,
	}
}

// ActivityMultiplier looks up the TDEE multiplier, falling back to the default
// for unknown or empty activity levels.
func (c Config) ActivityMultiplier(level string) float64 {
	if m, ok := c.ActivityMultipliers[level]; ok && m > 0 {
		return m
	}
	if c.DefaultActivityMultiplier > 0 {
		return c.DefaultActivityMultiplier
	}
	return 1.2
}
