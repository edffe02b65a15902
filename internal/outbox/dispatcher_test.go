package outbox

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Alish28/NutriAI/internal/events"
)

func TestDeliverFramesPayloadAndSetsHeaders(t *testing.T) {
	producer := &stubProducer{}
	registry := &stubRegistry{id: 42}
	dispatcher := NewDispatcher(nil, producer, registry, zaptest.NewLogger(t), time.Second, 10)
	fixed := time.Date(2025, 7, 14, 9, 30, 0, 0, time.UTC)
	dispatcher.now = func() time.Time { return fixed }

	payload := json.RawMessage(`{"recommendation_id":"rec-1"}`)
	msgs := []Message{{
		EventID:       1,
		AggregateType: "recommendation",
		AggregateID:   "rec-1",
		EventType:     events.TypeRecommendationGenerated,
		Topic:         "recommendation_events",
		SchemaSubject: "recommendation_events-value",
		PartitionKey:  "user-1",
		Payload:       payload,
	}}

	require.NoError(t, dispatcher.deliver(context.Background(), msgs))
	require.Len(t, producer.writes, 1)
	require.Equal(t, "recommendation_events", producer.writes[0].topic)

	record := producer.writes[0].messages[0]
	require.Equal(t, []byte("user-1"), record.Key)
	require.Equal(t, fixed, record.Time)
	require.Equal(t, byte(0), record.Value[0])
	require.Equal(t, uint32(42), binary.BigEndian.Uint32(record.Value[1:5]))
	require.JSONEq(t, string(payload), string(record.Value[5:]))

	headers := map[string]string{}
	for _, h := range record.Headers {
		headers[h.Key] = string(h.Value)
	}
	require.Equal(t, events.TypeRecommendationGenerated, headers[HeaderEventType])
	require.Equal(t, "recommendation_events-value", headers[HeaderSchemaSubject])
	require.Equal(t, "rec-1", headers[HeaderAggregateID])
}

func TestDeliverGroupsByTopicInFirstSeenOrder(t *testing.T) {
	producer := &stubProducer{}
	registry := &stubRegistry{id: 3}
	dispatcher := NewDispatcher(nil, producer, registry, zaptest.NewLogger(t), time.Second, 10)

	msgs := []Message{
		{EventType: events.TypeRecommendationFeedback, Topic: "recommendation_feedback", SchemaSubject: "recommendation_feedback-value", Payload: json.RawMessage(`{}`)},
		{EventType: events.TypeRecommendationGenerated, Topic: "recommendation_events", SchemaSubject: "recommendation_events-value", Payload: json.RawMessage(`{}`)},
		{EventType: events.TypeRecommendationFeedback, Topic: "recommendation_feedback", SchemaSubject: "recommendation_feedback-value", Payload: json.RawMessage(`{}`)},
	}

	require.NoError(t, dispatcher.deliver(context.Background(), msgs))
	require.Len(t, producer.writes, 2)
	require.Equal(t, "recommendation_feedback", producer.writes[0].topic)
	require.Len(t, producer.writes[0].messages, 2)
	require.Equal(t, "recommendation_events", producer.writes[1].topic)
	require.Len(t, registry.calls, 2, "schema ids are cached per subject")
}

func TestDeliverRejectsUnknownEventType(t *testing.T) {
	producer := &stubProducer{}
	registry := &stubRegistry{id: 1}
	dispatcher := NewDispatcher(nil, producer, registry, zaptest.NewLogger(t), time.Second, 10)

	err := dispatcher.deliver(context.Background(), []Message{{EventType: "recommendation.unknown", Topic: "recommendation_events"}})
	require.ErrorContains(t, err, "no schema metadata for event_type=recommendation.unknown")
	require.Empty(t, producer.writes)
	require.Empty(t, registry.calls)
}

func TestDeliverWrapsProducerErrors(t *testing.T) {
	boom := errors.New("broker unavailable")
	dispatcher := NewDispatcher(nil, &stubProducer{err: boom}, &stubRegistry{id: 1}, zaptest.NewLogger(t), time.Second, 10)

	err := dispatcher.deliver(context.Background(), []Message{{
		EventType:     events.TypeRecommendationFeedback,
		Topic:         "recommendation_feedback",
		SchemaSubject: "recommendation_feedback-value",
		Payload:       json.RawMessage(`{}`),
	}})
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, "write recommendation_feedback")
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	m := NewDLQManager(nil, zaptest.NewLogger(t), 5, time.Minute)

	require.Equal(t, time.Minute, m.backoffDelay(0))
	require.Equal(t, time.Minute, m.backoffDelay(1))
	require.Equal(t, 2*time.Minute, m.backoffDelay(2))
	require.Equal(t, 32*time.Minute, m.backoffDelay(6))
	require.Equal(t, time.Hour, m.backoffDelay(7))
	require.Equal(t, time.Hour, m.backoffDelay(64))
}

func TestNewDLQManagerDefaults(t *testing.T) {
	m := NewDLQManager(nil, nil, 0, 0)
	require.Equal(t, 5, m.maxRetries)
	require.Equal(t, time.Minute, m.baseDelay)
}

func TestSchemaRegistryReturnsLatestVersion(t *testing.T) {
	var registered bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/subjects/recommendation_events-value/versions/latest":
			_, _ = w.Write([]byte(`{"id":17,"version":3}`))
		case r.Method == http.MethodPost:
			registered = true
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewSchemaRegistryClient(srv.URL + "/")
	id, err := client.EnsureSchema(context.Background(), "recommendation_events-value", recommendationGeneratedSchema)
	require.NoError(t, err)
	require.Equal(t, 17, id)
	require.False(t, registered)
}

func TestSchemaRegistryRegistersMissingSubject(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		require.Equal(t, "/subjects/recommendation_feedback-value/versions", r.URL.Path)
		require.Equal(t, "application/vnd.schemaregistry.v1+json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"id":5}`))
	}))
	defer srv.Close()

	client := NewSchemaRegistryClient(srv.URL)
	id, err := client.EnsureSchema(context.Background(), "recommendation_feedback-value", recommendationFeedbackSchema)
	require.NoError(t, err)
	require.Equal(t, 5, id)
	require.Equal(t, "JSON", body["schemaType"])
	require.Equal(t, recommendationFeedbackSchema, body["schema"])
}

func TestSchemaRegistrySurfacesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("registry down"))
	}))
	defer srv.Close()

	client := NewSchemaRegistryClient(srv.URL)
	_, err := client.EnsureSchema(context.Background(), "recommendation_events-value", recommendationGeneratedSchema)
	require.ErrorContains(t, err, "status 503")
	require.NotErrorIs(t, err, ErrSubjectNotFound)
}

func TestSchemasAreValidJSON(t *testing.T) {
	for eventType, schema := range schemaCatalog {
		var doc map[string]any
		require.NoErrorf(t, json.Unmarshal([]byte(schema), &doc), "schema for %s", eventType)
	}
}

type stubProducer struct {
	mu     sync.Mutex
	err    error
	delay  time.Duration
	writes []writtenBatch
}

type writtenBatch struct {
	topic    string
	messages []kafka.Message
}

func (s *stubProducer) WriteMessages(_ context.Context, topic string, msgs ...kafka.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return s.err
	}
	copied := make([]kafka.Message, len(msgs))
	copy(copied, msgs)
	s.writes = append(s.writes, writtenBatch{topic: topic, messages: copied})
	return nil
}

type stubRegistry struct {
	mu    sync.Mutex
	id    int
	err   error
	calls []string
}

func (s *stubRegistry) EnsureSchema(_ context.Context, subject string, _ string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, subject)
	if s.err != nil {
		return 0, s.err
	}
	return s.id, nil
}
