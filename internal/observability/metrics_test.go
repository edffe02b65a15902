package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestRecordRecommendationRequest(t *testing.T) {
	before := testutil.ToFloat64(recommendationRequests.WithLabelValues("lunch", OutcomeServed))
	RecordRecommendationRequest("lunch", OutcomeServed)
	require.Equal(t, before+1, testutil.ToFloat64(recommendationRequests.WithLabelValues("lunch", OutcomeServed)))

	RecordRecommendationRequest("", OutcomeError)
	require.GreaterOrEqual(t, testutil.ToFloat64(recommendationRequests.WithLabelValues("unknown", OutcomeError)), 1.0)
}

func TestRecordFeedbackVerdicts(t *testing.T) {
	accepted := testutil.ToFloat64(feedbackCounter.WithLabelValues("accepted"))
	rejected := testutil.ToFloat64(feedbackCounter.WithLabelValues("rejected"))

	RecordFeedback(true)
	RecordFeedback(false)
	RecordFeedback(false)

	require.Equal(t, accepted+1, testutil.ToFloat64(feedbackCounter.WithLabelValues("accepted")))
	require.Equal(t, rejected+2, testutil.ToFloat64(feedbackCounter.WithLabelValues("rejected")))
}

func TestRecordRecommendationsPersistedIgnoresZero(t *testing.T) {
	ts := time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)
	RecordRecommendationsPersisted(ts)
	require.Equal(t, float64(ts.Unix()), testutil.ToFloat64(lastServedGauge))

	RecordRecommendationsPersisted(time.Time{})
	require.Equal(t, float64(ts.Unix()), testutil.ToFloat64(lastServedGauge))
}

func TestObserveConfidence(t *testing.T) {
	metric := &dto.Metric{}
	require.NoError(t, confidenceHistogram.Write(metric))
	before := metric.GetHistogram().GetSampleCount()

	ObserveConfidence(72)
	ObserveConfidence(100)

	metric = &dto.Metric{}
	require.NoError(t, confidenceHistogram.Write(metric))
	hist := metric.GetHistogram()
	require.NotNil(t, hist)
	require.Equal(t, before+2, hist.GetSampleCount())
}
