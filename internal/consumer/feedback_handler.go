package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/Alish28/NutriAI/internal/domain"
	"github.com/Alish28/NutriAI/internal/events"
)

// FeedbackHandler applies recommendation.feedback events to the template
// catalog through a FeedbackLedger. Other event types are acknowledged and
// skipped.
type FeedbackHandler struct {
	ledger domain.FeedbackLedger
	logger *zap.Logger
}

// NewFeedbackHandler constructs a FeedbackHandler.
func NewFeedbackHandler(ledger domain.FeedbackLedger, logger *zap.Logger) *FeedbackHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackHandler{ledger: ledger, logger: logger}
}

// Handle decodes and applies one message.
func (h *FeedbackHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != events.TypeRecommendationFeedback {
		recordSkipped(msg)
		return nil
	}

	var payload events.RecommendationFeedback
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("decode feedback payload: %w", err)
	}
	if payload.RecommendationID == "" {
		return fmt.Errorf("feedback event at offset %d has no recommendation_id", msg.Offset)
	}

	applied, err := h.ledger.ApplyFeedback(ctx,
		domain.EventRecord{
			Topic:     msg.Topic,
			Partition: msg.Partition,
			Offset:    msg.Offset,
			EventType: msg.EventType,
			SchemaID:  msg.SchemaID,
			Payload:   msg.Payload,
		},
		domain.FeedbackEvent{
			RecommendationID: payload.RecommendationID,
			UserID:           payload.UserID,
			MealTemplateID:   payload.MealTemplateID,
			Accepted:         payload.Accepted,
			OccurredAt:       payload.OccurredAt,
		},
	)
	if err != nil {
		return fmt.Errorf("apply feedback: %w", err)
	}
	if !applied {
		recordDuplicate(msg)
		h.logger.Debug("feedback already applied",
			zap.String("recommendation_id", payload.RecommendationID),
			zap.Int64("offset", msg.Offset))
		return nil
	}

	h.logger.Info("feedback applied",
		zap.String("recommendation_id", payload.RecommendationID),
		zap.String("meal_template_id", payload.MealTemplateID),
		zap.Bool("accepted", payload.Accepted))
	return nil
}
