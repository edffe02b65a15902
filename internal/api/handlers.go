// Package api exposes the recommendation engine over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Alish28/NutriAI/internal/auth"
	"github.com/Alish28/NutriAI/internal/domain"
	"github.com/Alish28/NutriAI/internal/persistence"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	logger  *zap.Logger
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// recommendations serves GET /v1/recommendations?meal_type=&date=.
func (h *Handler) recommendations(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRecommendationsRead, auth.ScopeRecommendationsWrite)
	if !ok {
		return
	}

	q := r.URL.Query()
	if strings.TrimSpace(q.Get("meal_type")) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", domain.ErrInvalidMealType.Error())
		return
	}

	result, err := h.service.Recommend(r.Context(), domain.RecommendInput{
		UserID:   claims.Subject,
		MealType: q.Get("meal_type"),
		Date:     q.Get("date"),
	})
	if err != nil {
		h.writeDomainError(w, err, "failed to generate recommendations")
		return
	}

	items := make([]RecommendationView, 0, len(result.Recommendations))
	for _, rec := range result.Recommendations {
		items = append(items, toRecommendationView(rec))
	}
	resp := RecommendationsResponse{
		MealType:        result.MealType,
		Date:            result.Date.Format(domain.DateLayout),
		Count:           len(items),
		Personalized:    result.Goals.Personalized,
		Recommendations: items,
	}
	if len(items) == 0 {
		resp.Message = "No meals match your preferences for this meal yet."
	}
	writeJSON(w, http.StatusOK, resp)
}

// feedback serves POST /v1/recommendations/feedback.
func (h *Handler) feedback(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRecommendationsWrite)
	if !ok {
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	result, err := h.service.SubmitFeedback(r.Context(), domain.FeedbackInput{
		UserID:           claims.Subject,
		RecommendationID: req.RecommendationID,
		Accepted:         *req.Accepted,
	})
	if err != nil {
		h.writeDomainError(w, err, "failed to submit feedback")
		return
	}

	writeJSON(w, http.StatusOK, FeedbackResponse{
		RecommendationID: result.Recommendation.ID,
		Feedback:         string(result.Recommendation.Feedback),
		Message:          result.Message,
	})
}

// history serves GET /v1/recommendations/history?limit=&cursor=.
func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRecommendationsRead, auth.ScopeRecommendationsWrite)
	if !ok {
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			if parsed > maxHistoryLimit {
				parsed = maxHistoryLimit
			}
			limit = parsed
		}
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	recs, next, err := h.service.ListRecommendations(r.Context(), claims.Subject, cursor, limit)
	if err != nil {
		h.writeDomainError(w, err, "failed to load recommendation history")
		return
	}

	items := make([]RecommendationView, 0, len(recs))
	for _, rec := range recs {
		items = append(items, toRecommendationView(rec))
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Items: items, NextCursor: persistence.EncodeCursor(next)})
}

// goals serves GET /v1/goals.
func (h *Handler) goals(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRecommendationsRead, auth.ScopeRecommendationsWrite)
	if !ok {
		return
	}

	goals, err := h.service.Goals(r.Context(), claims.Subject)
	if err != nil {
		h.writeDomainError(w, err, "failed to calculate goals")
		return
	}
	writeJSON(w, http.StatusOK, toGoalsView(goals))
}

// status serves GET /v1/status?date=.
func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRecommendationsRead, auth.ScopeRecommendationsWrite)
	if !ok {
		return
	}

	daily, err := h.service.DailyStatus(r.Context(), claims.Subject, r.URL.Query().Get("date"))
	if err != nil {
		h.writeDomainError(w, err, "failed to resolve nutritional status")
		return
	}
	writeJSON(w, http.StatusOK, toStatusView(*daily))
}

// insights serves GET /v1/insights.
func (h *Handler) insights(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRecommendationsRead, auth.ScopeRecommendationsWrite)
	if !ok {
		return
	}

	report, err := h.service.Insights(r.Context(), claims.Subject)
	if err != nil {
		h.writeDomainError(w, err, "failed to generate insights")
		return
	}
	writeJSON(w, http.StatusOK, toInsightsView(*report))
}

func requireScope(w http.ResponseWriter, r *http.Request, scopes ...string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	if !claims.HasAnyScope(scopes...) {
		writeError(w, http.StatusForbidden, "forbidden", "scope "+scopes[0]+" required")
		return nil, false
	}
	return claims, true
}

// writeDomainError maps domain errors to responses. Unexpected errors are
// logged and reported with the generic detail so internals do not leak.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error, generic string) {
	switch {
	case errors.Is(err, domain.ErrInvalidMealType), errors.Is(err, domain.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "not_found", "user profile not found")
	case errors.Is(err, domain.ErrRecommendationNotFound):
		writeError(w, http.StatusNotFound, "not_found", "recommendation not found")
	default:
		h.logger.Error(generic, zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error", generic)
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
