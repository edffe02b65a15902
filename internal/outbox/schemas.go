package outbox

const recommendationGeneratedSchema = `{
  "type": "object",
  "title": "RecommendationGenerated",
  "properties": {
    "recommendation_id": {"type": "string"},
    "user_id": {"type": "string"},
    "meal_template_id": {"type": "string"},
    "meal_type": {"type": "string", "enum": ["breakfast", "lunch", "dinner", "snack"]},
    "confidence_score": {"type": "integer", "minimum": 0, "maximum": 100},
    "recommended_for": {"type": "string", "format": "date"},
    "gap_protein": {"type": "number"},
    "gap_calories": {"type": "number"},
    "generated_at": {"type": "string", "format": "date-time"}
  },
  "required": ["recommendation_id", "user_id", "meal_template_id", "meal_type", "confidence_score", "recommended_for", "gap_protein", "gap_calories", "generated_at"],
  "additionalProperties": false
}`

const recommendationFeedbackSchema = `{
  "type": "object",
  "title": "RecommendationFeedback",
  "properties": {
    "recommendation_id": {"type": "string"},
    "user_id": {"type": "string"},
    "meal_template_id": {"type": "string"},
    "accepted": {"type": "boolean"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["recommendation_id", "user_id", "meal_template_id", "accepted", "occurred_at"],
  "additionalProperties": false
}`
