// Package domain defines the recommendation workflows built on the nutrition engine.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Alish28/NutriAI/internal/nutrition"
	"github.com/Alish28/NutriAI/internal/observability"
)

var (
	// ErrInvalidMealType is returned for meal types outside breakfast, lunch, dinner and snack.
	ErrInvalidMealType = errors.New("meal_type must be one of breakfast, lunch, dinner, snack")
	// ErrInvalidDate is returned when a date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")
	// ErrUserNotFound is returned when no profile exists for the user.
	ErrUserNotFound = errors.New("user not found")
	// ErrRecommendationNotFound is returned when feedback targets an unknown recommendation.
	ErrRecommendationNotFound = errors.New("recommendation not found")
)

// Service orchestrates recommendation workflows.
type Service struct {
	repo   Repository
	cfg    nutrition.Config
	logger *zap.Logger
	now    func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConfig overrides the engine configuration.
func WithConfig(cfg nutrition.Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs a Service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		cfg:    nutrition.DefaultConfig(),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecommendInput captures a recommendation request from the API layer.
type RecommendInput struct {
	UserID   string
	MealType string
	// Date is YYYY-MM-DD; empty means today.
	Date string
}

// RecommendResult is the ranked output plus the context it was computed in.
type RecommendResult struct {
	MealType        string
	Date            time.Time
	Goals           nutrition.NutritionGoals
	Status          nutrition.NutritionalStatus
	Candidates      int
	Recommendations []StoredRecommendation
}

// Recommend runs the full pipeline for one user and meal: load profile, meal
// log and catalog, compute status, filter, score and keep the top results.
// Served recommendations are persisted before returning. Any upstream failure
// fails the whole request.
func (s *Service) Recommend(ctx context.Context, input RecommendInput) (*RecommendResult, error) {
	mealType, err := NormalizeMealType(input.MealType)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	date, err := ParseDate(input.Date, now)
	if err != nil {
		return nil, err
	}

	var (
		profile   *nutrition.UserProfile
		meals     []nutrition.LoggedMeal
		templates []nutrition.MealTemplate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.repo.GetUserProfile(gctx, input.UserID)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		m, err := s.repo.LoggedMealsForDate(gctx, input.UserID, date)
		if err != nil {
			return fmt.Errorf("load meal log: %w", err)
		}
		meals = m
		return nil
	})
	g.Go(func() error {
		t, err := s.repo.ActiveMealTemplates(gctx, mealType)
		if err != nil {
			return fmt.Errorf("load meal templates: %w", err)
		}
		templates = t
		return nil
	})
	if err := g.Wait(); err != nil {
		observability.RecordRecommendationRequest(mealType, observability.OutcomeError)
		s.logger.Error("recommendation upstream failure",
			zap.String("user_id", input.UserID),
			zap.String("meal_type", mealType),
			zap.Error(err))
		return nil, err
	}
	if profile == nil {
		observability.RecordRecommendationRequest(mealType, observability.OutcomeError)
		return nil, ErrUserNotFound
	}

	goals := nutrition.CalculateGoals(*profile, s.cfg)
	status := nutrition.ResolveStatus(meals, goals)
	candidates := nutrition.FilterCandidates(templates, mealType, *profile)
	ranked := nutrition.Rank(candidates, *profile, status, s.cfg)

	stored := make([]StoredRecommendation, 0, len(ranked))
	for _, rec := range ranked {
		stored = append(stored, StoredRecommendation{
			ID:                   uuid.NewString(),
			UserID:               input.UserID,
			RecommendedFor:       date,
			CreatedAt:            now,
			Feedback:             FeedbackPending,
			ScoredRecommendation: rec,
		})
	}

	if len(stored) > 0 {
		if err := s.repo.SaveRecommendations(ctx, stored); err != nil {
			observability.RecordRecommendationRequest(mealType, observability.OutcomeError)
			s.logger.Error("persist recommendations failed", zap.String("user_id", input.UserID), zap.Error(err))
			return nil, fmt.Errorf("save recommendations: %w", err)
		}
	}

	outcome := observability.OutcomeServed
	if len(stored) == 0 {
		outcome = observability.OutcomeEmpty
	}
	observability.RecordRecommendationRequest(mealType, outcome)
	if !goals.Personalized {
		observability.RecordNonPersonalized()
	}
	for _, rec := range stored {
		observability.ObserveConfidence(rec.ConfidenceScore)
	}

	s.logger.Info("recommendations generated",
		zap.String("user_id", input.UserID),
		zap.String("meal_type", mealType),
		zap.String("date", date.Format(DateLayout)),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(stored)),
		zap.Bool("personalized", goals.Personalized))

	return &RecommendResult{
		MealType:        mealType,
		Date:            date,
		Goals:           goals,
		Status:          status,
		Candidates:      len(candidates),
		Recommendations: stored,
	}, nil
}

// Goals previews the daily targets for a user with the same calculation the
// recommendation pipeline uses.
func (s *Service) Goals(ctx context.Context, userID string) (nutrition.NutritionGoals, error) {
	profile, err := s.repo.GetUserProfile(ctx, userID)
	if err != nil {
		return nutrition.NutritionGoals{}, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nutrition.NutritionGoals{}, ErrUserNotFound
	}
	return nutrition.CalculateGoals(*profile, s.cfg), nil
}

// DailyStatus reports consumption against goals for one day along with
// per-macro insights and tips.
type DailyStatus struct {
	Date     time.Time
	Status   nutrition.NutritionalStatus
	Insights []nutrition.Insight
	Tips     []string
}

// DailyStatus resolves the nutritional status for a user on a date.
func (s *Service) DailyStatus(ctx context.Context, userID, rawDate string) (*DailyStatus, error) {
	date, err := ParseDate(rawDate, s.now())
	if err != nil {
		return nil, err
	}
	profile, err := s.repo.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, ErrUserNotFound
	}
	meals, err := s.repo.LoggedMealsForDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("load meal log: %w", err)
	}

	status := nutrition.ResolveStatus(meals, nutrition.CalculateGoals(*profile, s.cfg))
	return &DailyStatus{
		Date:     date,
		Status:   status,
		Insights: nutrition.StatusInsights(status),
		Tips:     nutrition.DailyTips(status),
	}, nil
}

// ListRecommendations returns stored recommendations newest first.
func (s *Service) ListRecommendations(ctx context.Context, userID string, cursor *Cursor, limit int) ([]StoredRecommendation, *Cursor, error) {
	return s.repo.ListRecommendations(ctx, userID, cursor, limit)
}
