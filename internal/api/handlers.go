package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/dysphagialab/swallow-detect/internal/models"
	"github.com/dysphagialab/swallow-detect/internal/services"
	"github.com/dysphagialab/swallow-detect/internal/utils"
)

// maxBodyBytes bounds analysis uploads; a 16-channel session at 2 kHz for
// several minutes of JSON-encoded float64 samples fits comfortably.
const maxBodyBytes = 256 << 20

// AnalysisAPI defines the service operations the handlers expose.
type AnalysisAPI interface {
	Analyze(ctx context.Context, input services.AnalyzeInput) (models.AnalysisResult, error)
	Get(ctx context.Context, id string) (models.AnalysisResult, error)
	List(ctx context.Context, req models.ListAnalysesRequest) ([]models.AnalysisResult, error)
	Summary(ctx context.Context) (models.AnalysisSummary, error)
	Healthy(ctx context.Context) error
}

// Handlers wires the analysis service into HTTP routes.
type Handlers struct {
	logger  *slog.Logger
	service AnalysisAPI
}

// NewHandlers constructs the HTTP handler set.
func NewHandlers(logger *slog.Logger, service AnalysisAPI) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{logger: logger, service: service}
}

// Register attaches all routes to the router.
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/analyses", h.handleAnalyze).Methods(http.MethodPost)
	api.HandleFunc("/analyses", h.handleList).Methods(http.MethodGet)
	api.HandleFunc("/analyses/{id}", h.handleGet).Methods(http.MethodGet)
	api.HandleFunc("/summary", h.handleSummary).Methods(http.MethodGet)
}

type analyzeRequest struct {
	SessionID  string                  `json:"sessionId"`
	SampleRate float64                 `json:"sampleRate"`
	Preset     string                  `json:"preset"`
	Params     services.ParamOverrides `json:"params"`
	Channels   []models.ChannelSignal  `json:"channels"`
}

func (h *Handlers) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	defer r.Body.Close()

	var req analyzeRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	result, err := h.service.Analyze(r.Context(), services.AnalyzeInput{
		SessionID:  strings.TrimSpace(req.SessionID),
		SampleRate: req.SampleRate,
		Channels:   req.Channels,
		Preset:     req.Preset,
		Overrides:  req.Params,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *Handlers) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 100
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_limit")
			return
		}
		limit = n
	}

	results, err := h.service.List(r.Context(), models.ListAnalysesRequest{
		SessionID: strings.TrimSpace(q.Get("session_id")),
		Limit:     limit,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if results == nil {
		results = []models.AnalysisResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handlers) handleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	result, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Healthy(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
}

func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, utils.ErrInvalidConfig), errors.Is(err, utils.ErrInvalidData):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	default:
		h.logger.Error("request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]any{"error": code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
