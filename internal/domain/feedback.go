package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Alish28/NutriAI/internal/observability"
)

// Popularity adjustments applied when a recommendation is accepted.
const (
	PopularityAcceptBoost = 5
	MaxPopularity         = 100
)

// Feedback response messages.
const (
	FeedbackAcceptedMessage = "Thank you for your feedback!"
	FeedbackRejectedMessage = "We'll improve our recommendations"
)

// FeedbackInput captures a user's reaction to a served recommendation.
type FeedbackInput struct {
	UserID           string
	RecommendationID string
	Accepted         bool
}

// FeedbackResult echoes the updated recommendation and a user-facing message.
type FeedbackResult struct {
	Recommendation StoredRecommendation
	Message        string
}

// SubmitFeedback marks a stored recommendation accepted or rejected. Catalog
// popularity is adjusted downstream from the feedback event.
func (s *Service) SubmitFeedback(ctx context.Context, input FeedbackInput) (*FeedbackResult, error) {
	if strings.TrimSpace(input.RecommendationID) == "" {
		return nil, ErrRecommendationNotFound
	}

	rec, err := s.repo.RecordFeedback(ctx, input.UserID, input.RecommendationID, input.Accepted, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("record feedback: %w", err)
	}
	if rec == nil {
		return nil, ErrRecommendationNotFound
	}

	observability.RecordFeedback(input.Accepted)
	s.logger.Info("recommendation feedback recorded",
		zap.String("user_id", input.UserID),
		zap.String("recommendation_id", rec.ID),
		zap.String("meal_template_id", rec.Meal.ID),
		zap.Bool("accepted", input.Accepted))

	msg := FeedbackRejectedMessage
	if input.Accepted {
		msg = FeedbackAcceptedMessage
	}
	return &FeedbackResult{Recommendation: *rec, Message: msg}, nil
}

// BoostedPopularity applies the acceptance boost, capped at MaxPopularity.
func BoostedPopularity(current int) int {
	next := current + PopularityAcceptBoost
	if next > MaxPopularity {
		return MaxPopularity
	}
	return next
}

// FeedbackEvent is the feedback fact consumed from the event stream.
type FeedbackEvent struct {
	RecommendationID string
	UserID           string
	MealTemplateID   string
	Accepted         bool
	OccurredAt       time.Time
}

// EventRecord identifies a consumed message so it is applied at most once.
type EventRecord struct {
	Topic     string
	Partition int
	Offset    int64
	EventType string
	SchemaID  int
	Payload   []byte
}

// FeedbackLedger applies feedback events to the template catalog. Applied is
// false when the record was already processed.
type FeedbackLedger interface {
	ApplyFeedback(ctx context.Context, record EventRecord, event FeedbackEvent) (applied bool, err error)
}
