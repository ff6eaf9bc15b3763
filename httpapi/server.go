// Package httpapi exposes retrieval over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/poiesic/hybridrag/core"
	"github.com/poiesic/hybridrag/search"
)

// DefaultRequestTimeout bounds a single retrieval request.
const DefaultRequestTimeout = 60 * time.Second

// Retriever is the subset of the retrieval system the API serves.
type Retriever interface {
	RetrieveMode(ctx context.Context, query string, mode search.Mode) ([]core.Passage, error)
	WebEnabled() bool
}

// PassageResponse is a passage as rendered in API responses.
type PassageResponse struct {
	Content  string            `json:"content"`
	Source   core.Source       `json:"source"`
	Rank     int               `json:"rank,omitempty"`
	Score    float32           `json:"score,omitempty"`
	Metadata map[string]string `json:"metadata"`
}

// RetrieveResponse is the body of a successful GET /retrieve.
type RetrieveResponse struct {
	Query    string            `json:"query"`
	Mode     string            `json:"mode"`
	Passages []PassageResponse `json:"passages"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handler struct {
	retriever Retriever
	logger    *slog.Logger
}

// NewRouter returns the API routes:
//
//	GET /healthz
//	GET /retrieve?q=<query>[&mode=local|hybrid]
func NewRouter(retriever Retriever, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{retriever: retriever, logger: logger.With("component", "httpapi")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(DefaultRequestTimeout))

	r.Get("/healthz", h.health)
	r.Get("/retrieve", h.retrieve)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "endpoint not found"})
	})
	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"web_enabled": h.retriever.WebEnabled(),
	})
}

func (h *handler) retrieve(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing query parameter q"})
		return
	}

	mode := search.ModeLocalOnly
	if h.retriever.WebEnabled() {
		mode = search.ModeHybrid
	}
	if raw := r.URL.Query().Get("mode"); raw != "" {
		parsed, err := search.ParseMode(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		mode = parsed
	}

	passages, err := h.retriever.RetrieveMode(r.Context(), query, mode)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		h.logger.Error("retrieval failed",
			"query", query, "mode", mode,
			"request_id", middleware.GetReqID(r.Context()), "err", err)
		writeJSON(w, status, errorResponse{Error: "retrieval failed"})
		return
	}

	resp := RetrieveResponse{
		Query:    query,
		Mode:     mode.String(),
		Passages: make([]PassageResponse, 0, len(passages)),
	}
	for _, p := range passages {
		resp.Passages = append(resp.Passages, PassageResponse{
			Content:  p.Content,
			Source:   p.Source,
			Rank:     p.Rank,
			Score:    p.Score,
			Metadata: p.Metadata,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
