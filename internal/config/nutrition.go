package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/Alish28/NutriAI/internal/nutrition"
)

// LoadNutrition returns the engine configuration. An empty path yields the
// defaults; otherwise the YAML file at path is layered over them, so keys the
// file omits keep their default values.
func LoadNutrition(path string) (nutrition.Config, error) {
	cfg := nutrition.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nutrition.Config{}, fmt.Errorf("read nutrition config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nutrition.Config{}, fmt.Errorf("parse nutrition config %s: %w", path, err)
	}
	if err := validateNutrition(cfg); err != nil {
		return nutrition.Config{}, fmt.Errorf("nutrition config %s: %w", path, err)
	}
	return cfg, nil
}

func validateNutrition(cfg nutrition.Config) error {
	if cfg.RecommendationLimit <= 0 {
		return errors.New("recommendation_limit must be > 0")
	}
	for level, m := range cfg.ActivityMultipliers {
		if m <= 0 {
			return fmt.Errorf("activity multiplier for %q must be > 0", level)
		}
	}
	if cfg.DefaultActivityMultiplier <= 0 {
		return errors.New("default_activity_multiplier must be > 0")
	}
	if cfg.GoalCalorieAdjustment < 0 {
		return errors.New("goal_calorie_adjustment must be >= 0")
	}
	g := cfg.DefaultGoals
	if g.Calories < 0 || g.Protein < 0 || g.Carbs < 0 || g.Fats < 0 {
		return errors.New("default_goals must not be negative")
	}
	weights := map[string]float64{
		"nutrient_gap":    cfg.Weights.NutrientGap,
		"goal_alignment":  cfg.Weights.GoalAlignment,
		"cuisine_match":   cfg.Weights.CuisineMatch,
		"cuisine_neutral": cfg.Weights.CuisineNeutral,
		"variety":         cfg.Weights.Variety,
		"budget":          cfg.Weights.Budget,
		"budget_neutral":  cfg.Weights.BudgetNeutral,
	}
	for name, w := range weights {
		if w < 0 {
			return fmt.Errorf("weights.%s must be >= 0", name)
		}
	}
	splits := map[string]nutrition.MacroSplit{
		"base_split":          cfg.BaseSplit,
		"high_protein_split":  cfg.HighProteinSplit,
		"low_carb_split":      cfg.LowCarbSplit,
		"heart_healthy_split": cfg.HeartHealthySplit,
	}
	for name, s := range splits {
		if s.Protein < 0 || s.Carbs < 0 || s.Fats < 0 {
			return fmt.Errorf("%s has a negative share", name)
		}
		if math.Abs(s.Protein+s.Carbs+s.Fats-1) > 0.001 {
			return fmt.Errorf("%s shares must sum to 1", name)
		}
	}
	return nil
}
