package nutrition

import (
	"sort"
	"strings"
)

// FilterCandidates narrows the catalog to templates a user can be offered for
// a meal type. Filters run in order: meal type and active flag, dietary
// preference (any tag matches), allergens (no ingredient substring matches),
// then budget ceiling. The result keeps popularity-descending order and may
// be empty.
func FilterCandidates(templates []MealTemplate, mealType string, profile UserProfile) []MealTemplate {
	out := make([]MealTemplate, 0, len(templates))
	for _, t := range templates {
		if t.IsActive && t.MealType == mealType {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PopularityScore > out[j].PopularityScore
	})

	if len(profile.DietaryPreferences) > 0 {
		out = keep(out, func(t MealTemplate) bool {
			return matchesPreference(t, profile.DietaryPreferences)
		})
	}

	if len(profile.Allergies) > 0 {
		out = keep(out, func(t MealTemplate) bool {
			return !ContainsAllergen(t, profile.Allergies)
		})
	}

	if budget, ok := profile.Budget(); ok {
		out = keep(out, func(t MealTemplate) bool {
			return t.EstimatedCost <= budget
		})
	}

	return out
}

// ContainsAllergen reports whether any allergen appears, case-insensitively,
// anywhere in the template's joined ingredient list.
func ContainsAllergen(t MealTemplate, allergies []string) bool {
	ingredients := strings.ToLower(strings.Join(t.Ingredients, " "))
	for _, allergen := range allergies {
		a := strings.ToLower(strings.TrimSpace(allergen))
		if a == "" {
			continue
		}
		if strings.Contains(ingredients, a) {
			return true
		}
	}
	return false
}

func matchesPreference(t MealTemplate, prefs []string) bool {
	tags := make(map[string]struct{}, len(t.DietaryTags))
	for _, tag := range t.DietaryTags {
		tags[strings.ToLower(strings.TrimSpace(tag))] = struct{}{}
	}
	for _, pref := range prefs {
		if _, ok := tags[strings.ToLower(strings.TrimSpace(pref))]; ok {
			return true
		}
	}
	return false
}

func keep(in []MealTemplate, pred func(MealTemplate) bool) []MealTemplate {
	out := in[:0]
	for _, t := range in {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out
}
