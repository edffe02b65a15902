//go:build integration

package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Alish28/NutriAI/internal/events"
	"github.com/Alish28/NutriAI/internal/testsupport"
)

func TestDispatcherPublishesPendingEvents(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)

	recID := uuid.NewString()
	seedOutbox(t, ctx, pool, recID, events.TypeRecommendationGenerated, "recommendation_events")

	producer := &stubProducer{}
	registry := &stubRegistry{id: 42}
	dispatcher := NewDispatcher(pool, producer, registry, zaptest.NewLogger(t), 10*time.Millisecond, 5)

	before := testutil.ToFloat64(deliveredCounter)
	require.NoError(t, dispatcher.processBatch(ctx))

	require.Len(t, producer.writes, 1)
	require.Equal(t, "recommendation_events", producer.writes[0].topic)
	require.Len(t, producer.writes[0].messages, 1)
	require.Equal(t, []byte("user-1"), producer.writes[0].messages[0].Key)
	require.InDelta(t, before+1, testutil.ToFloat64(deliveredCounter), 0.0001)

	var published int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NOT NULL`).Scan(&published))
	require.Equal(t, 1, published)

	require.NoError(t, dispatcher.processBatch(ctx))
	require.Len(t, producer.writes, 1, "published rows are not redelivered")
}

func TestFailedDeliveryRoundTripsThroughDLQ(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)

	recID := uuid.NewString()
	seedOutbox(t, ctx, pool, recID, events.TypeRecommendationFeedback, "recommendation_feedback")

	producer := &stubProducer{err: errors.New("broker unavailable")}
	dispatcher := NewDispatcher(pool, producer, &stubRegistry{id: 7}, zaptest.NewLogger(t), 10*time.Millisecond, 5)

	beforeDLQ := testutil.ToFloat64(dlqCounter.WithLabelValues("recommendation_feedback"))
	require.NoError(t, dispatcher.processBatch(ctx))
	require.InDelta(t, beforeDLQ+1, testutil.ToFloat64(dlqCounter.WithLabelValues("recommendation_feedback")), 0.0001)

	var reason string
	require.NoError(t, pool.QueryRow(ctx, `SELECT reason FROM outbox_dlq WHERE aggregate_id=$1`, recID).Scan(&reason))
	require.Contains(t, reason, "broker unavailable")
	require.Contains(t, reason, "topic=recommendation_feedback")

	manager := NewDLQManager(pool, zaptest.NewLogger(t), 3, time.Minute)
	processed, err := manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, processed)

	var remaining, pending int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_dlq`).Scan(&remaining))
	require.Zero(t, remaining)
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE published_at IS NULL AND aggregate_id=$1`, recID).Scan(&pending))
	require.Equal(t, 1, pending)

	producer.err = nil
	require.NoError(t, dispatcher.processBatch(ctx))
	require.Len(t, producer.writes, 1)
}

func TestDLQManagerQuarantinesExhaustedEntries(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)

	_, err := pool.Exec(ctx, `INSERT INTO outbox_dlq (event_id, event_type, topic, payload, reason, aggregate_type, aggregate_id, schema_subject, partition_key, retry_count, next_retry_at)
        VALUES (1, $1, 'recommendation_feedback', '{}'::jsonb, 'write failed', 'recommendation', 'r-1', 'recommendation_feedback-value', 't-1', 3, NOW())`,
		events.TypeRecommendationFeedback)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO outbox_dlq (event_id, event_type, topic, payload, reason, aggregate_type, aggregate_id, schema_subject, partition_key, retry_count, next_retry_at)
        VALUES (2, $1, 'recommendation_feedback', '{}'::jsonb, 'write failed', 'recommendation', 'r-2', '', 't-2', 0, NOW())`,
		events.TypeRecommendationFeedback)
	require.NoError(t, err)

	manager := NewDLQManager(pool, zaptest.NewLogger(t), 3, time.Minute)
	processed, err := manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 2, processed)

	var quarantineReason string
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT quarantine_reason FROM outbox_dlq WHERE aggregate_id='r-1' AND quarantined_at IS NOT NULL`).Scan(&quarantineReason))
	require.Equal(t, "retry limit reached", quarantineReason)

	var retries int
	var due bool
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT retry_count, next_retry_at > NOW() FROM outbox_dlq WHERE aggregate_id='r-2'`).Scan(&retries, &due))
	require.Equal(t, 1, retries)
	require.True(t, due, "failed requeue is pushed into the future")

	processed, err = manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Zero(t, processed)
}

func TestDispatcherObservesFullBatchDuration(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)

	seedOutbox(t, ctx, pool, uuid.NewString(), events.TypeRecommendationGenerated, "recommendation_events")

	producer := &stubProducer{delay: 200 * time.Millisecond}
	dispatcher := NewDispatcher(pool, producer, &stubRegistry{id: 3}, zaptest.NewLogger(t), 10*time.Millisecond, 5)

	countBefore, sumBefore := batchDurationSnapshot(t)
	require.NoError(t, dispatcher.processBatch(ctx))
	countAfter, sumAfter := batchDurationSnapshot(t)

	require.Equal(t, countBefore+1, countAfter)
	require.GreaterOrEqual(t, sumAfter-sumBefore, 0.2, "duration includes the kafka write")
}

func TestRepeatedDeliveryFailuresEndInQuarantine(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)

	recID := uuid.NewString()
	seedOutbox(t, ctx, pool, recID, events.TypeRecommendationFeedback, "recommendation_feedback")

	const maxRetries = 2
	producer := &stubProducer{err: errors.New("broker unavailable")}
	dispatcher := NewDispatcher(pool, producer, &stubRegistry{id: 7}, zaptest.NewLogger(t), 10*time.Millisecond, 5)
	manager := NewDLQManager(pool, zaptest.NewLogger(t), maxRetries, time.Minute)

	beforeQuarantined := testutil.ToFloat64(dlqQuarantinedCounter.WithLabelValues("recommendation_feedback", events.TypeRecommendationFeedback))

	for attempt := 0; attempt <= maxRetries; attempt++ {
		require.NoError(t, dispatcher.processBatch(ctx))

		var retryCount int
		require.NoError(t, pool.QueryRow(ctx,
			`SELECT retry_count FROM outbox_dlq WHERE aggregate_id=$1 AND quarantined_at IS NULL`, recID).Scan(&retryCount))
		require.Equal(t, attempt, retryCount)

		processed, err := manager.RunOnce(ctx, 10)
		require.NoError(t, err)
		require.Equal(t, 1, processed)
	}

	var quarantined, pending int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox_dlq WHERE aggregate_id=$1 AND quarantined_at IS NOT NULL`, recID).Scan(&quarantined))
	require.Equal(t, 1, quarantined)
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE aggregate_id=$1 AND published_at IS NULL`, recID).Scan(&pending))
	require.Zero(t, pending, "quarantined events are not replayed")
	require.InDelta(t, beforeQuarantined+1,
		testutil.ToFloat64(dlqQuarantinedCounter.WithLabelValues("recommendation_feedback", events.TypeRecommendationFeedback)), 0.0001)
}

func batchDurationSnapshot(t *testing.T) (uint64, float64) {
	t.Helper()

	metric := &dto.Metric{}
	require.NoError(t, batchDuration.Write(metric))
	hist := metric.GetHistogram()
	require.NotNil(t, hist)
	return hist.GetSampleCount(), hist.GetSampleSum()
}

func seedOutbox(t *testing.T, ctx context.Context, pool *pgxpool.Pool, recommendationID, eventType, topic string) int64 {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"recommendation_id": recommendationID,
		"user_id":           "user-1",
	})
	require.NoError(t, err)

	var eventID int64
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload)
         VALUES ($1,$2,$3,$4,$5,$6,$7)
         RETURNING event_id`,
		"recommendation", recommendationID, eventType, topic, topic+"-value", "user-1", payload,
	).Scan(&eventID))
	return eventID
}
