package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Alish28/NutriAI/internal/domain"
	"github.com/Alish28/NutriAI/internal/events"
	"github.com/Alish28/NutriAI/internal/nutrition"
	"github.com/Alish28/NutriAI/internal/observability"
)

// Repository provides Postgres-backed persistence for profiles, meal logs,
// the template catalog, served recommendations and outbox events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetUserProfile loads a profile. Unknown users yield nil, nil.
func (r *Repository) GetUserProfile(ctx context.Context, userID string) (*nutrition.UserProfile, error) {
	const query = `SELECT user_id, age, weight_kg, height_cm, COALESCE(gender, ''), COALESCE(activity_level, ''),
            health_goals, nutrition_focus, dietary_preferences, allergies, preferred_cuisines, daily_budget
        FROM users WHERE user_id=$1`

	var p nutrition.UserProfile
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.Age, &p.WeightKg, &p.HeightCm, &p.Gender, &p.ActivityLevel,
		&p.HealthGoals, &p.NutritionFocus, &p.DietaryPreferences, &p.Allergies, &p.PreferredCuisines, &p.DailyBudget,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// LoggedMealsForDate returns the meals a user logged on a calendar date.
func (r *Repository) LoggedMealsForDate(ctx context.Context, userID string, date time.Time) ([]nutrition.LoggedMeal, error) {
	const query = `SELECT meal_type, meal_name, calories, protein, carbs, fats
        FROM meals WHERE user_id=$1 AND meal_date=$2
        ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, userID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meals := make([]nutrition.LoggedMeal, 0)
	for rows.Next() {
		var m nutrition.LoggedMeal
		if err := rows.Scan(&m.MealType, &m.Name, &m.Calories, &m.Protein, &m.Carbs, &m.Fats); err != nil {
			return nil, err
		}
		meals = append(meals, m)
	}
	return meals, rows.Err()
}

// MealTypeHistory aggregates logged meals per meal type since the given time.
func (r *Repository) MealTypeHistory(ctx context.Context, userID string, since time.Time) ([]domain.MealTypeStat, error) {
	const query = `SELECT meal_type, COUNT(*), COALESCE(AVG(calories), 0), COALESCE(AVG(protein), 0)
        FROM meals WHERE user_id=$1 AND meal_date >= $2::date
        GROUP BY meal_type
        ORDER BY meal_type`

	rows, err := r.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]domain.MealTypeStat, 0)
	for rows.Next() {
		var s domain.MealTypeStat
		if err := rows.Scan(&s.MealType, &s.Count, &s.AvgCalories, &s.AvgProtein); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// ActiveMealTemplates lists active templates of a meal type, most popular first.
func (r *Repository) ActiveMealTemplates(ctx context.Context, mealType string) ([]nutrition.MealTemplate, error) {
	const query = `SELECT template_id, meal_name, meal_type, calories, protein, carbs, fats,
            dietary_tags, ingredients, cuisine_type, estimated_cost, popularity_score, is_active
        FROM meal_templates
        WHERE meal_type=$1 AND is_active
        ORDER BY popularity_score DESC, template_id`

	rows, err := r.pool.Query(ctx, query, mealType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]nutrition.MealTemplate, 0)
	for rows.Next() {
		var t nutrition.MealTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.MealType, &t.Calories, &t.Protein, &t.Carbs, &t.Fats,
			&t.DietaryTags, &t.Ingredients, &t.CuisineType, &t.EstimatedCost, &t.PopularityScore, &t.IsActive); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// SaveRecommendations persists served recommendations and records a
// recommendation.generated outbox event for each inside one transaction.
func (r *Repository) SaveRecommendations(ctx context.Context, recs []domain.StoredRecommendation) (err error) {
	if len(recs) == 0 {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const insert = `INSERT INTO ai_recommendations (recommendation_id, user_id, meal_template_id, meal_name, meal_type,
            calories, protein, carbs, fats, cuisine_type, estimated_cost, reason, confidence_score, recommended_for,
            gap_protein, gap_calories, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`

	for _, rec := range recs {
		m := rec.Meal
		if _, err = tx.Exec(ctx, insert,
			rec.ID, rec.UserID, m.ID, m.Name, m.MealType,
			m.Calories, m.Protein, m.Carbs, m.Fats, m.CuisineType, m.EstimatedCost,
			rec.Reason, rec.ConfidenceScore, rec.RecommendedFor,
			rec.GapProtein, rec.GapCalories, rec.CreatedAt,
		); err != nil {
			return err
		}

		if err = insertOutbox(ctx, tx, rec, events.TypeRecommendationGenerated, events.RecommendationGenerated{
			RecommendationID: rec.ID,
			UserID:           rec.UserID,
			MealTemplateID:   m.ID,
			MealType:         m.MealType,
			ConfidenceScore:  rec.ConfidenceScore,
			RecommendedFor:   rec.RecommendedFor.Format(domain.DateLayout),
			GapProtein:       rec.GapProtein,
			GapCalories:      rec.GapCalories,
			GeneratedAt:      rec.CreatedAt,
		}); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordRecommendationsPersisted(recs[0].CreatedAt)
	return nil
}

// RecordFeedback marks a user's recommendation accepted or rejected and records
// a recommendation.feedback outbox event. Unknown or foreign recommendations
// yield nil, nil.
func (r *Repository) RecordFeedback(ctx context.Context, userID, recommendationID string, accepted bool, at time.Time) (rec *domain.StoredRecommendation, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const update = `UPDATE ai_recommendations
        SET was_accepted=$3, was_rejected=NOT $3, feedback_at=$4
        WHERE recommendation_id::text=$1 AND user_id=$2
        RETURNING ` + recommendationColumns

	stored, scanErr := scanRecommendation(tx.QueryRow(ctx, update, recommendationID, userID, accepted, at))
	if scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return nil, tx.Commit(ctx)
		}
		err = scanErr
		return nil, err
	}

	if err = insertOutbox(ctx, tx, stored, events.TypeRecommendationFeedback, events.RecommendationFeedback{
		RecommendationID: stored.ID,
		UserID:           stored.UserID,
		MealTemplateID:   stored.Meal.ID,
		Accepted:         accepted,
		OccurredAt:       at,
	}); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &stored, nil
}

// ListRecommendations returns a user's stored recommendations newest first.
func (r *Repository) ListRecommendations(ctx context.Context, userID string, cursor *domain.Cursor, limit int) ([]domain.StoredRecommendation, *domain.Cursor, error) {
	args := []interface{}{userID, limit}
	query := `SELECT ` + recommendationColumns + ` FROM ai_recommendations WHERE user_id=$1`

	if cursor != nil {
		query += ` AND (created_at, recommendation_id::text) < ($3, $4)`
		args = append(args, cursor.CreatedAt, cursor.ID)
	}
	query += ` ORDER BY created_at DESC, recommendation_id::text DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	results := make([]domain.StoredRecommendation, 0, limit)
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var next *domain.Cursor
	if limit > 0 && len(results) == limit {
		last := results[len(results)-1]
		next = &domain.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return results, next, nil
}

// FeedbackStats counts a user's recommendations by feedback outcome.
func (r *Repository) FeedbackStats(ctx context.Context, userID string) (domain.FeedbackStats, error) {
	const query = `SELECT COUNT(*),
            COUNT(*) FILTER (WHERE was_accepted IS TRUE),
            COUNT(*) FILTER (WHERE was_rejected IS TRUE)
        FROM ai_recommendations WHERE user_id=$1`

	var stats domain.FeedbackStats
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&stats.Total, &stats.Accepted, &stats.Rejected); err != nil {
		return domain.FeedbackStats{}, err
	}
	return stats, nil
}

// ApplyFeedback records a consumed feedback event and, for acceptances, bumps
// the template's popularity. Redelivered records are detected through the
// event log and leave the catalog untouched.
func (r *Repository) ApplyFeedback(ctx context.Context, record domain.EventRecord, event domain.FeedbackEvent) (applied bool, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const logStmt = `INSERT INTO recommendation_event_log (topic, partition, record_offset, event_type, recommendation_id, meal_template_id, accepted)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (topic, partition, record_offset) DO NOTHING`

	tag, err := tx.Exec(ctx, logStmt, record.Topic, record.Partition, record.Offset, record.EventType,
		event.RecommendationID, event.MealTemplateID, event.Accepted)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, tx.Commit(ctx)
	}

	if event.Accepted && event.MealTemplateID != "" {
		if _, err = tx.Exec(ctx,
			`UPDATE meal_templates SET popularity_score = LEAST(popularity_score + $2, $3), updated_at = NOW() WHERE template_id=$1`,
			event.MealTemplateID, domain.PopularityAcceptBoost, domain.MaxPopularity,
		); err != nil {
			return false, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

const recommendationColumns = `recommendation_id::text, user_id, meal_template_id, meal_name, meal_type,
    calories, protein, carbs, fats, cuisine_type, estimated_cost, reason, confidence_score, recommended_for,
    gap_protein, gap_calories, was_accepted, feedback_at, created_at`

func scanRecommendation(row pgx.Row) (domain.StoredRecommendation, error) {
	var (
		rec      domain.StoredRecommendation
		accepted *bool
	)
	m := &rec.Meal
	if err := row.Scan(&rec.ID, &rec.UserID, &m.ID, &m.Name, &m.MealType,
		&m.Calories, &m.Protein, &m.Carbs, &m.Fats, &m.CuisineType, &m.EstimatedCost,
		&rec.Reason, &rec.ConfidenceScore, &rec.RecommendedFor,
		&rec.GapProtein, &rec.GapCalories, &accepted, &rec.FeedbackAt, &rec.CreatedAt); err != nil {
		return domain.StoredRecommendation{}, err
	}
	switch {
	case accepted == nil:
		rec.Feedback = domain.FeedbackPending
	case *accepted:
		rec.Feedback = domain.FeedbackAccepted
	default:
		rec.Feedback = domain.FeedbackRejected
	}
	return rec, nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, rec domain.StoredRecommendation, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (dedupe_key) DO NOTHING`

	_, err = tx.Exec(ctx, stmt,
		"recommendation",
		rec.ID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		meta.PartitionKeyFn(rec),
		body,
		dedupeKey(rec, eventType),
	)
	return err
}

// Feedback can change, so its dedupe key includes the feedback time.
func dedupeKey(rec domain.StoredRecommendation, eventType string) string {
	if eventType == events.TypeRecommendationFeedback && rec.FeedbackAt != nil {
		return fmt.Sprintf("%s:%s:%d", rec.ID, eventType, rec.FeedbackAt.UnixNano())
	}
	return fmt.Sprintf("%s:%s", rec.ID, eventType)
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic          string
	SchemaSubject  string
	PartitionKeyFn func(domain.StoredRecommendation) string
}

var eventCatalog = map[string]EventMetadata{
	events.TypeRecommendationGenerated: {
		Topic:         "recommendation_events",
		SchemaSubject: "recommendation_events-value",
		PartitionKeyFn: func(r domain.StoredRecommendation) string {
			return r.UserID
		},
	},
	events.TypeRecommendationFeedback: {
		Topic:         "recommendation_feedback",
		SchemaSubject: "recommendation_feedback-value",
		PartitionKeyFn: func(r domain.StoredRecommendation) string {
			return r.Meal.ID
		},
	},
}
