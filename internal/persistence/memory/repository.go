// Package memory provides an in-process repository for local development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Alish28/NutriAI/internal/domain"
	"github.com/Alish28/NutriAI/internal/nutrition"
)

type loggedMeal struct {
	date time.Time
	meal nutrition.LoggedMeal
}

// Repository stores profiles, meal logs, templates and recommendations in memory.
// Accepted feedback updates template popularity immediately since there is no
// event pipeline behind it.
type Repository struct {
	mu              sync.RWMutex
	users           map[string]nutrition.UserProfile
	meals           map[string][]loggedMeal
	templates       map[string]nutrition.MealTemplate
	recommendations map[string]domain.StoredRecommendation
}

// NewRepository constructs an empty repository.
func NewRepository() *Repository {
	return &Repository{
		users:           make(map[string]nutrition.UserProfile),
		meals:           make(map[string][]loggedMeal),
		templates:       make(map[string]nutrition.MealTemplate),
		recommendations: make(map[string]domain.StoredRecommendation),
	}
}

// AddUser inserts or replaces a profile.
func (r *Repository) AddUser(profile nutrition.UserProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[profile.UserID] = profile
}

// LogMeal appends a meal to a user's log for the given date.
func (r *Repository) LogMeal(userID string, date time.Time, meal nutrition.LoggedMeal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.meals[userID] = append(r.meals[userID], loggedMeal{date: dateOnly(date), meal: meal})
}

// AddTemplate inserts or replaces a catalog entry. An empty ID is generated.
func (r *Repository) AddTemplate(t nutrition.MealTemplate) nutrition.MealTemplate {
	r.mu.Lock()
	defer r.mu.Unlock()
	if strings.TrimSpace(t.ID) == "" {
		t.ID = uuid.NewString()
	}
	r.templates[t.ID] = t
	return t
}

// Template returns a catalog entry by ID.
func (r *Repository) Template(id string) (nutrition.MealTemplate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[id]
	return t, ok
}

// GetUserProfile implements domain.ProfileReader.
func (r *Repository) GetUserProfile(_ context.Context, userID string) (*nutrition.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.users[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// LoggedMealsForDate implements domain.MealLogReader.
func (r *Repository) LoggedMealsForDate(_ context.Context, userID string, date time.Time) ([]nutrition.LoggedMeal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	day := dateOnly(date)
	out := make([]nutrition.LoggedMeal, 0)
	for _, lm := range r.meals[userID] {
		if lm.date.Equal(day) {
			out = append(out, lm.meal)
		}
	}
	return out, nil
}

// MealTypeHistory implements domain.MealLogReader.
func (r *Repository) MealTypeHistory(_ context.Context, userID string, since time.Time) ([]domain.MealTypeStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := dateOnly(since)
	byType := make(map[string]*domain.MealTypeStat)
	for _, lm := range r.meals[userID] {
		if lm.date.Before(cutoff) {
			continue
		}
		s, ok := byType[lm.meal.MealType]
		if !ok {
			s = &domain.MealTypeStat{MealType: lm.meal.MealType}
			byType[lm.meal.MealType] = s
		}
		s.Count++
		s.AvgCalories += lm.meal.Calories
		s.AvgProtein += lm.meal.Protein
	}

	out := make([]domain.MealTypeStat, 0, len(byType))
	for _, s := range byType {
		s.AvgCalories /= float64(s.Count)
		s.AvgProtein /= float64(s.Count)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MealType < out[j].MealType })
	return out, nil
}

// ActiveMealTemplates implements domain.TemplateCatalog.
func (r *Repository) ActiveMealTemplates(_ context.Context, mealType string) ([]nutrition.MealTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]nutrition.MealTemplate, 0)
	for _, t := range r.templates {
		if t.IsActive && t.MealType == mealType {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PopularityScore != out[j].PopularityScore {
			return out[i].PopularityScore > out[j].PopularityScore
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SaveRecommendations implements domain.RecommendationStore.
func (r *Repository) SaveRecommendations(_ context.Context, recs []domain.StoredRecommendation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range recs {
		r.recommendations[rec.ID] = rec
	}
	return nil
}

// RecordFeedback implements domain.RecommendationStore.
func (r *Repository) RecordFeedback(_ context.Context, userID, recommendationID string, accepted bool, at time.Time) (*domain.StoredRecommendation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.recommendations[recommendationID]
	if !ok || rec.UserID != userID {
		return nil, nil
	}
	rec.Feedback = domain.FeedbackRejected
	if accepted {
		rec.Feedback = domain.FeedbackAccepted
	}
	rec.FeedbackAt = &at
	r.recommendations[recommendationID] = rec

	if accepted {
		if t, ok := r.templates[rec.Meal.ID]; ok {
			t.PopularityScore = domain.BoostedPopularity(t.PopularityScore)
			r.templates[t.ID] = t
		}
	}
	return &rec, nil
}

// ListRecommendations implements domain.RecommendationStore.
func (r *Repository) ListRecommendations(_ context.Context, userID string, cursor *domain.Cursor, limit int) ([]domain.StoredRecommendation, *domain.Cursor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]domain.StoredRecommendation, 0)
	for _, rec := range r.recommendations {
		if rec.UserID == userID {
			all = append(all, rec)
		}
	}
	sort.Slice(all, func(i, j int) bool { return newerThan(all[i].CreatedAt, all[i].ID, all[j].CreatedAt, all[j].ID) })

	out := make([]domain.StoredRecommendation, 0, limit)
	for _, rec := range all {
		if cursor != nil && !newerThan(cursor.CreatedAt, cursor.ID, rec.CreatedAt, rec.ID) {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}

	var next *domain.Cursor
	if limit > 0 && len(out) == limit {
		last := out[len(out)-1]
		next = &domain.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return out, next, nil
}

// FeedbackStats implements domain.RecommendationStore.
func (r *Repository) FeedbackStats(_ context.Context, userID string) (domain.FeedbackStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var stats domain.FeedbackStats
	for _, rec := range r.recommendations {
		if rec.UserID != userID {
			continue
		}
		stats.Total++
		switch rec.Feedback {
		case domain.FeedbackAccepted:
			stats.Accepted++
		case domain.FeedbackRejected:
			stats.Rejected++
		}
	}
	return stats, nil
}

// newerThan orders by created_at then ID, both descending.
func newerThan(aTime time.Time, aID string, bTime time.Time, bID string) bool {
	if !aTime.Equal(bTime) {
		return aTime.After(bTime)
	}
	return aID > bID
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
