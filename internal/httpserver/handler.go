package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/davidbz/scribe/internal/domain"
	"github.com/davidbz/scribe/internal/observability"
)

const maxRequestBodyBytes = 64 << 10

// Handler handles HTTP requests.
type Handler struct {
	chat           *domain.ChatService
	completion     *domain.CompletionService
	embeddingCache domain.ComputeCache[[]float64]
	searchCache    domain.ComputeCache[domain.RetrievalResult]
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(
	chat *domain.ChatService,
	completion *domain.CompletionService,
	embeddingCache domain.ComputeCache[[]float64],
	searchCache domain.ComputeCache[domain.RetrievalResult],
) *Handler {
	return &Handler{
		chat:           chat,
		completion:     completion,
		embeddingCache: embeddingCache,
		searchCache:    searchCache,
	}
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type phaseBreakdown struct {
	Embedding string `json:"embedding"`
	Search    string `json:"search"`
	AI        string `json:"ai"`
	Total     string `json:"total"`
}

type source struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Division string   `json:"division,omitempty"`
	Date     string   `json:"date,omitempty"`
	Score    *float64 `json:"score,omitempty"`
}

type chatResponse struct {
	SessionID        string         `json:"session_id"`
	Message          string         `json:"message"`
	Response         string         `json:"response"`
	ContextLogsCount int            `json:"context_logs_count"`
	ProcessingTime   string         `json:"processing_time"`
	Breakdown        phaseBreakdown `json:"breakdown"`
	Degraded         bool           `json:"degraded"`
	Sources          []source       `json:"sources"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// HandleChat answers one question.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)

	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	resp, err := h.chat.Answer(ctx, domain.ChatRequest{
		Message:   req.Message,
		SessionID: req.SessionID,
	})
	if err != nil {
		status, body := errorStatus(err)
		if status >= http.StatusInternalServerError {
			logger.Error("chat request failed",
				observability.Int("status", status),
				observability.Error(err))
		}
		writeJSON(w, status, body)
		return
	}

	writeJSON(w, http.StatusOK, toChatResponse(resp))
}

// errorStatus maps pipeline errors to a status and a body free of internal details.
func errorStatus(err error) (int, errorResponse) {
	const unavailable = "completion service unavailable"

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrCompletionTimeout):
		return http.StatusGatewayTimeout, errorResponse{Error: unavailable, Code: "completion_timeout"}
	case errors.Is(err, domain.ErrCompletionInvalidResponse):
		return http.StatusBadGateway, errorResponse{Error: unavailable, Code: "completion_invalid_response"}
	case errors.Is(err, domain.ErrCompletionUnavailable):
		return http.StatusBadGateway, errorResponse{Error: unavailable, Code: "completion_transport_error"}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
	}
}

func toChatResponse(resp *domain.ChatResponse) chatResponse {
	sources := make([]source, 0, len(resp.Sources))
	for _, doc := range resp.Sources {
		s := source{
			Title:    doc.Title,
			Author:   doc.Author,
			Division: doc.Division,
			Score:    doc.Score,
		}
		if !doc.CreatedAt.IsZero() {
			s.Date = doc.CreatedAt.Format(time.DateOnly)
		}
		sources = append(sources, s)
	}

	return chatResponse{
		SessionID:        resp.SessionID,
		Message:          resp.Message,
		Response:         resp.Response,
		ContextLogsCount: resp.ContextLogsCount,
		ProcessingTime:   millis(resp.Timings.Total),
		Breakdown: phaseBreakdown{
			Embedding: millis(resp.Timings.Embedding),
			Search:    millis(resp.Timings.Search),
			AI:        millis(resp.Timings.AI),
			Total:     millis(resp.Timings.Total),
		},
		Degraded: resp.Degraded,
		Sources:  sources,
	}
}

func millis(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}

type latencyStats struct {
	AverageMs int64 `json:"average_ms"`
	Samples   int   `json:"samples"`
}

func (h *Handler) completionLatency() latencyStats {
	avg, n := h.completion.AverageLatency()
	return latencyStats{AverageMs: avg.Milliseconds(), Samples: n}
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "healthy",
		"completion_latency": h.completionLatency(),
	})
}

// HandleStats reports cache counters and completion latency.
func (h *Handler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"caches": map[string]domain.CacheStats{
			"embedding": h.embeddingCache.Stats(),
			"search":    h.searchCache.Stats(),
		},
		"completion_latency": h.completionLatency(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Status is already written; an encode failure can only be a broken connection.
	_ = json.NewEncoder(w).Encode(body)
}
