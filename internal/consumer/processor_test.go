package consumer

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Alish28/NutriAI/internal/domain"
	"github.com/Alish28/NutriAI/internal/events"
)

func TestProcessorCommitsOnSuccess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payload := []byte(`{"recommendation_id":"rec-1"}`)
	msg := framedMessage(42, payload, 10, events.TypeRecommendationFeedback)

	reader := &stubReader{messages: []kafka.Message{msg}}
	handler := &stubHandler{}
	processor := NewProcessor(reader, handler, WithLogger(zaptest.NewLogger(t)))

	before := testutil.ToFloat64(processedCounter.WithLabelValues("recommendation_feedback", events.TypeRecommendationFeedback))

	err := processor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 1, reader.commitCalls)
	require.Equal(t, events.TypeRecommendationFeedback, handler.last.EventType)
	require.Equal(t, "rec-1", handler.last.AggregateID)
	require.Equal(t, 42, handler.last.SchemaID)
	require.Equal(t, int64(10), handler.last.Offset)
	require.JSONEq(t, string(payload), string(handler.last.Payload))

	after := testutil.ToFloat64(processedCounter.WithLabelValues("recommendation_feedback", events.TypeRecommendationFeedback))
	require.InDelta(t, before+1, after, 0.0001)
}

func TestProcessorRetriesFailedRecordBeforeCommittingLaterOffsets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := framedMessage(7, []byte(`{}`), 1, events.TypeRecommendationFeedback)
	second := framedMessage(7, []byte(`{}`), 2, events.TypeRecommendationFeedback)
	reader := &stubReader{messages: []kafka.Message{first, second}}
	handler := &stubHandler{failures: map[int64]int{1: 1}, err: errors.New("database unavailable")}
	processor := NewProcessor(reader, handler,
		WithLogger(zaptest.NewLogger(t)),
		WithRetryBackoff(time.Millisecond, 5*time.Millisecond))

	before := testutil.ToFloat64(handlerErrorCounter.WithLabelValues("recommendation_feedback", events.TypeRecommendationFeedback))

	err := processor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, []int64{1, 1, 2}, handler.offsets)
	require.Equal(t, []int64{1, 2}, reader.committed)
	after := testutil.ToFloat64(handlerErrorCounter.WithLabelValues("recommendation_feedback", events.TypeRecommendationFeedback))
	require.InDelta(t, before+1, after, 0.0001)
}

func TestProcessorStopsRetryingWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msg := framedMessage(99, []byte(`{}`), 20, events.TypeRecommendationFeedback)
	reader := &stubReader{messages: []kafka.Message{msg}}
	handler := &stubHandler{err: errors.New("boom"), failures: map[int64]int{20: 1000}}
	handler.onCall = func(int) { cancel() }
	processor := NewProcessor(reader, handler,
		WithLogger(zaptest.NewLogger(t)),
		WithRetryBackoff(time.Minute, time.Minute))

	err := processor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Zero(t, reader.commitCalls)
	require.Empty(t, reader.committed)
}

func TestProcessorCommitsMalformedRecords(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	short := kafka.Message{Topic: "recommendation_feedback", Value: []byte{0, 1}}
	noHeader := framedMessage(1, []byte(`{}`), 31, events.TypeRecommendationFeedback)
	noHeader.Headers = nil

	reader := &stubReader{messages: []kafka.Message{short, noHeader}}
	handler := &stubHandler{}
	processor := NewProcessor(reader, handler, WithLogger(zaptest.NewLogger(t)))

	before := testutil.ToFloat64(decodeErrorCounter.WithLabelValues("recommendation_feedback"))

	err := processor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Zero(t, handler.calls)
	require.Equal(t, 2, reader.commitCalls)
	after := testutil.ToFloat64(decodeErrorCounter.WithLabelValues("recommendation_feedback"))
	require.InDelta(t, before+2, after, 0.0001)
}

func TestDecodeMessageRejectsUnknownMagicByte(t *testing.T) {
	msg := framedMessage(1, []byte(`{}`), 0, events.TypeRecommendationFeedback)
	msg.Value[0] = 1

	_, err := decodeMessage(msg)
	require.ErrorContains(t, err, "magic byte")
}

func TestFeedbackHandlerAppliesAcceptedFeedback(t *testing.T) {
	ledger := &stubLedger{applied: true}
	handler := NewFeedbackHandler(ledger, zaptest.NewLogger(t))
	occurred := time.Date(2025, 7, 14, 12, 0, 0, 0, time.UTC)

	msg := Message{
		Topic:     "recommendation_feedback",
		Partition: 2,
		Offset:    77,
		EventType: events.TypeRecommendationFeedback,
		SchemaID:  5,
		Payload: []byte(`{"recommendation_id":"rec-9","user_id":"user-1","meal_template_id":"tpl-salad",` +
			`"accepted":true,"occurred_at":"2025-07-14T12:00:00Z"}`),
	}

	require.NoError(t, handler.Handle(context.Background(), msg))
	require.Len(t, ledger.calls, 1)

	call := ledger.calls[0]
	require.Equal(t, domain.EventRecord{
		Topic:     "recommendation_feedback",
		Partition: 2,
		Offset:    77,
		EventType: events.TypeRecommendationFeedback,
		SchemaID:  5,
		Payload:   msg.Payload,
	}, call.record)
	require.Equal(t, domain.FeedbackEvent{
		RecommendationID: "rec-9",
		UserID:           "user-1",
		MealTemplateID:   "tpl-salad",
		Accepted:         true,
		OccurredAt:       occurred,
	}, call.event)
}

func TestFeedbackHandlerTreatsDuplicatesAsSuccess(t *testing.T) {
	ledger := &stubLedger{applied: false}
	handler := NewFeedbackHandler(ledger, zaptest.NewLogger(t))

	msg := Message{
		Topic:     "recommendation_feedback",
		EventType: events.TypeRecommendationFeedback,
		Payload:   []byte(`{"recommendation_id":"rec-9","meal_template_id":"tpl-salad","accepted":true}`),
	}

	before := testutil.ToFloat64(skippedCounter.WithLabelValues("recommendation_feedback", "duplicate"))
	require.NoError(t, handler.Handle(context.Background(), msg))
	after := testutil.ToFloat64(skippedCounter.WithLabelValues("recommendation_feedback", "duplicate"))
	require.InDelta(t, before+1, after, 0.0001)
}

func TestFeedbackHandlerIgnoresOtherEventTypes(t *testing.T) {
	ledger := &stubLedger{}
	handler := NewFeedbackHandler(ledger, nil)

	err := handler.Handle(context.Background(), Message{
		Topic:     "recommendation_events",
		EventType: events.TypeRecommendationGenerated,
		Payload:   []byte(`not json`),
	})
	require.NoError(t, err)
	require.Empty(t, ledger.calls)
}

func TestFeedbackHandlerPropagatesErrors(t *testing.T) {
	boom := errors.New("database unavailable")
	handler := NewFeedbackHandler(&stubLedger{err: boom}, zaptest.NewLogger(t))

	err := handler.Handle(context.Background(), Message{
		EventType: events.TypeRecommendationFeedback,
		Payload:   []byte(`{"recommendation_id":"rec-1","accepted":false}`),
	})
	require.ErrorIs(t, err, boom)

	err = handler.Handle(context.Background(), Message{
		EventType: events.TypeRecommendationFeedback,
		Payload:   []byte(`{"accepted":true}`),
	})
	require.ErrorContains(t, err, "no recommendation_id")

	err = handler.Handle(context.Background(), Message{
		EventType: events.TypeRecommendationFeedback,
		Payload:   []byte(`{`),
	})
	require.ErrorContains(t, err, "decode feedback payload")
}

func framedMessage(schemaID int, payload []byte, offset int64, eventType string) kafka.Message {
	value := make([]byte, 5+len(payload))
	binary.BigEndian.PutUint32(value[1:5], uint32(schemaID))
	copy(value[5:], payload)

	return kafka.Message{
		Topic:     "recommendation_feedback",
		Partition: 0,
		Offset:    offset,
		Time:      time.Now().UTC(),
		Value:     value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "aggregate_id", Value: []byte("rec-1")},
			{Key: "schema_subject", Value: []byte("recommendation_feedback-value")},
		},
	}
}

type stubReader struct {
	messages    []kafka.Message
	index       int
	commitCalls int
	committed   []int64
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	if r.index >= len(r.messages) {
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[r.index]
	r.index++
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.commitCalls++
	for _, msg := range msgs {
		r.committed = append(r.committed, msg.Offset)
	}
	return nil
}

func (r *stubReader) Close() error { return nil }

// stubHandler fails a record with err as many times as failures lists for
// its offset, then succeeds.
type stubHandler struct {
	calls    int
	err      error
	failures map[int64]int
	offsets  []int64
	last     Message
	onCall   func(calls int)
}

func (h *stubHandler) Handle(_ context.Context, msg Message) error {
	h.calls++
	h.last = msg
	h.offsets = append(h.offsets, msg.Offset)
	if h.onCall != nil {
		h.onCall(h.calls)
	}
	if h.failures[msg.Offset] > 0 {
		h.failures[msg.Offset]--
		return h.err
	}
	return nil
}

type ledgerCall struct {
	record domain.EventRecord
	event  domain.FeedbackEvent
}

type stubLedger struct {
	applied bool
	err     error
	calls   []ledgerCall
}

func (l *stubLedger) ApplyFeedback(_ context.Context, record domain.EventRecord, event domain.FeedbackEvent) (bool, error) {
	l.calls = append(l.calls, ledgerCall{record: record, event: event})
	if l.err != nil {
		return false, l.err
	}
	return l.applied, nil
}
