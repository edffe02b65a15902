package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recommendation request outcomes.
const (
	OutcomeServed = "served"
	OutcomeEmpty  = "empty"
	OutcomeError  = "error"
)

var (
	recommendationRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nutriai",
		Subsystem: "recommendations",
		Name:      "requests_total",
		Help:      "Recommendation requests grouped by meal type and outcome.",
	}, []string{"meal_type", "outcome"})

	confidenceHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nutriai",
		Subsystem: "recommendations",
		Name:      "confidence_score",
		Help:      "Confidence score of served recommendations.",
		Buckets:   prometheus.LinearBuckets(10, 10, 10),
	})

	nonPersonalizedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nutriai",
		Subsystem: "recommendations",
		Name:      "non_personalized_total",
		Help:      "Recommendation requests served from default goals because the profile was incomplete.",
	})

	feedbackCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nutriai",
		Subsystem: "recommendations",
		Name:      "feedback_total",
		Help:      "Recommendation feedback grouped by verdict.",
	}, []string{"verdict"})

	lastServedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nutriai",
		Subsystem: "recommendations",
		Name:      "last_served_timestamp_seconds",
		Help:      "Unix timestamp of the most recent recommendation batch persisted.",
	})
)

func init() {
	prometheus.MustRegister(recommendationRequests, confidenceHistogram, nonPersonalizedCounter, feedbackCounter, lastServedGauge)
}

// RecordRecommendationRequest counts one recommendation request.
func RecordRecommendationRequest(mealType, outcome string) {
	if mealType == "" {
		mealType = "unknown"
	}
	recommendationRequests.WithLabelValues(mealType, outcome).Inc()
}

// ObserveConfidence records the score of a served recommendation.
func ObserveConfidence(score int) {
	confidenceHistogram.Observe(float64(score))
}

// RecordNonPersonalized counts a request that fell back to default goals.
func RecordNonPersonalized() {
	nonPersonalizedCounter.Inc()
}

// RecordFeedback counts accepted or rejected feedback.
func RecordFeedback(accepted bool) {
	verdict := "rejected"
	if accepted {
		verdict = "accepted"
	}
	feedbackCounter.WithLabelValues(verdict).Inc()
}

// RecordRecommendationsPersisted updates the persistence watermark gauge.
func RecordRecommendationsPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastServedGauge.Set(float64(ts.Unix()))
}
