package nutrition

import (
	"fmt"
	"math"
)

// Insight statuses for a single nutrient.
const (
	InsightExcellent = "excellent"
	InsightWarning   = "warning"
	InsightOver      = "over"
	InsightGood      = "good"
	InsightUnder     = "under"
)

// Insight describes consumption of one nutrient against its goal.
type Insight struct {
	Nutrient   string `json:"nutrient"`
	Status     string `json:"status"`
	Percentage int    `json:"percentage"`
	Message    string `json:"message"`
}

// MacroInsight rates actual consumption of a nutrient against the goal.
// A goal of zero or less counts as met unless something was consumed.
func MacroInsight(nutrient string, actual float64, goal int) Insight {
	unit := "g"
	if nutrient == "calories" {
		unit = "calories"
	}
	diff := int(math.Round(math.Abs(actual - float64(goal))))

	if goal <= 0 {
		if actual > 0 {
			return Insight{Nutrient: nutrient, Status: InsightOver, Percentage: 100,
				Message: fmt.Sprintf("You've exceeded your %s goal by %d %s.", nutrient, diff, unit)}
		}
		return Insight{Nutrient: nutrient, Status: InsightExcellent, Percentage: 100,
			Message: fmt.Sprintf("Perfect! You're right on target with your %s.", nutrient)}
	}

	pct := int(math.Round(actual / float64(goal) * 100))
	in := Insight{Nutrient: nutrient, Percentage: pct}
	switch {
	case pct >= 95 && pct <= 105:
		in.Status = InsightExcellent
		in.Message = fmt.Sprintf("Perfect! You're right on target with your %s.", nutrient)
	case pct > 105 && pct <= 115:
		in.Status = InsightWarning
		in.Message = fmt.Sprintf("You're %d %s over your %s goal.", diff, unit, nutrient)
	case pct > 115:
		in.Status = InsightOver
		in.Message = fmt.Sprintf("You've exceeded your %s goal by %d %s.", nutrient, diff, unit)
	case pct >= 80:
		in.Status = InsightGood
		in.Message = fmt.Sprintf("You're %d %s away from your %s goal.", diff, unit, nutrient)
	default:
		in.Status = InsightUnder
		in.Message = fmt.Sprintf("Try to consume %d more %s of %s today.", diff, unit, nutrient)
	}
	return in
}

// StatusInsights rates every macro in a status.
func StatusInsights(status NutritionalStatus) []Insight {
	return []Insight{
		MacroInsight("calories", status.Consumed.Calories, status.Goals.Calories),
		MacroInsight("protein", status.Consumed.Protein, status.Goals.Protein),
		MacroInsight("carbs", status.Consumed.Carbs, status.Goals.Carbs),
		MacroInsight("fats", status.Consumed.Fats, status.Goals.Fats),
	}
}

// DailyTips turns a day's status into short suggestions. There is always at
// least one tip.
func DailyTips(status NutritionalStatus) []string {
	var tips []string
	c, g := status.Consumed, status.Goals

	switch cal := percentOf(c.Calories, g.Calories); {
	case cal < 80:
		tips = append(tips, "Consider adding a healthy snack to meet your calorie goal.")
	case cal > 115:
		tips = append(tips, "You've exceeded your calorie goal. Try lighter options for your next meal.")
	}

	switch p := percentOf(c.Protein, g.Protein); {
	case p < 70:
		tips = append(tips, "Add more protein to your meals (eggs, chicken, tofu, legumes).")
	case p > 95:
		tips = append(tips, "Great job hitting your protein goal!")
	}

	if percentOf(c.Carbs, g.Carbs) > 120 {
		tips = append(tips, "Consider reducing carbs in your next meal.")
	}
	if percentOf(c.Fats, g.Fats) < 70 {
		tips = append(tips, "Add healthy fats (avocado, nuts, olive oil) to your diet.")
	}

	if len(tips) == 0 {
		tips = append(tips, "Excellent! Your nutrition is well-balanced today.")
	}
	return tips
}

func percentOf(actual float64, goal int) float64 {
	if goal <= 0 {
		return 100
	}
	return actual / float64(goal) * 100
}
