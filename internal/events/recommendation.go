// Package events defines the event payloads exchanged between the API and the consumer.
package events

import "time"

// Event types carried in the outbox and the Kafka event_type header.
const (
	TypeRecommendationGenerated = "recommendation.generated"
	TypeRecommendationFeedback  = "recommendation.feedback"
)

// RecommendationGenerated is emitted for every recommendation served to a user.
type RecommendationGenerated struct {
	RecommendationID string    `json:"recommendation_id"`
	UserID           string    `json:"user_id"`
	MealTemplateID   string    `json:"meal_template_id"`
	MealType         string    `json:"meal_type"`
	ConfidenceScore  int       `json:"confidence_score"`
	RecommendedFor   string    `json:"recommended_for"`
	GapProtein       float64   `json:"gap_protein"`
	GapCalories      float64   `json:"gap_calories"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// RecommendationFeedback is emitted when a user accepts or rejects a recommendation.
type RecommendationFeedback struct {
	RecommendationID string    `json:"recommendation_id"`
	UserID           string    `json:"user_id"`
	MealTemplateID   string    `json:"meal_template_id"`
	Accepted         bool      `json:"accepted"`
	OccurredAt       time.Time `json:"occurred_at"`
}
