package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"netsync/internal/codec"
	"netsync/internal/repository"
	"netsync/internal/service"
)

// LoadTrigger starts a load run on demand
type LoadTrigger interface {
	Run(ctx context.Context) (*service.RunReport, error)
}

// RunHandler serves the recorded load runs
type RunHandler struct {
	repo    repository.Repository
	trigger LoadTrigger
	log     *zap.Logger
}

// NewRunHandler creates a new run handler
func NewRunHandler(repo repository.Repository, logger *zap.Logger) *RunHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunHandler{repo: repo, log: logger.Named("handler")}
}

// SetLoadTrigger enables POST /api/load
func (h *RunHandler) SetLoadTrigger(t LoadTrigger) {
	h.trigger = t
}

// Register adds the endpoints to mux. Without a repository only the
// health and load endpoints are served.
func (h *RunHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("POST /api/load", h.TriggerLoad)
	if h.repo == nil {
		return
	}
	mux.HandleFunc("GET /api/runs", h.ListRuns)
	mux.HandleFunc("GET /api/runs/latest", h.GetLatestRun)
	mux.HandleFunc("GET /api/runs/{id}", h.GetRun)
	mux.HandleFunc("GET /api/runs/{id}/snapshot", h.GetSnapshot)
	mux.HandleFunc("GET /api/runs/{id}/quarantine", h.GetQuarantine)
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Health reports that the server is up
func (h *RunHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// ListRuns returns recorded runs newest first
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, "Invalid limit", v, http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.repo.ListRuns(r.Context(), limit)
	if err != nil {
		h.log.Error("Failed to list runs", zap.Error(err))
		h.writeError(w, "Failed to list runs", err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []repository.Run{}
	}

	h.writeJSON(w, runs, http.StatusOK)
}

// GetLatestRun returns the most recent successful run
func (h *RunHandler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.repo.LatestRun(r.Context())
	if err != nil {
		h.log.Error("Failed to get latest run", zap.Error(err))
		h.writeError(w, "Failed to get latest run", err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		h.writeError(w, "No successful runs recorded", "", http.StatusNotFound)
		return
	}

	h.writeJSON(w, run, http.StatusOK)
}

// GetRun returns a single run by ID
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	run, err := h.repo.GetRun(r.Context(), id)
	if err != nil {
		h.log.Error("Failed to get run", zap.String("run_id", id), zap.Error(err))
		h.writeError(w, "Failed to get run", err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		h.writeError(w, "Run not found", id, http.StatusNotFound)
		return
	}

	h.writeJSON(w, run, http.StatusOK)
}

// GetSnapshot exports the snapshot of a run as JSON or, with ?format=yaml, YAML
func (h *RunHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	c, err := codec.ForFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, "Unsupported format", err.Error(), http.StatusBadRequest)
		return
	}

	snap, err := h.repo.GetSnapshot(r.Context(), id)
	if err != nil {
		h.log.Error("Failed to get snapshot", zap.String("run_id", id), zap.Error(err))
		h.writeError(w, "Failed to get snapshot", err.Error(), http.StatusInternalServerError)
		return
	}
	if snap == nil {
		h.writeError(w, "Run not found", id, http.StatusNotFound)
		return
	}

	if c.Format() == "yaml" {
		w.Header().Set("Content-Type", "application/yaml")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(http.StatusOK)
	if err := c.Export(&codec.Document{Snapshot: snap}, w); err != nil {
		h.log.Warn("Failed to export snapshot", zap.String("run_id", id), zap.Error(err))
	}
}

// GetQuarantine returns the devices a run quarantined
func (h *RunHandler) GetQuarantine(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	run, err := h.repo.GetRun(r.Context(), id)
	if err != nil {
		h.writeError(w, "Failed to get run", err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		h.writeError(w, "Run not found", id, http.StatusNotFound)
		return
	}

	records, err := h.repo.GetQuarantine(r.Context(), id)
	if err != nil {
		h.log.Error("Failed to get quarantine", zap.String("run_id", id), zap.Error(err))
		h.writeError(w, "Failed to get quarantine", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, records, http.StatusOK)
}

// TriggerLoad runs a load now and returns its summary
func (h *RunHandler) TriggerLoad(w http.ResponseWriter, r *http.Request) {
	if h.trigger == nil {
		h.writeError(w, "Load trigger not configured", "", http.StatusServiceUnavailable)
		return
	}

	report, err := h.trigger.Run(r.Context())
	if report == nil {
		details := "unknown error"
		if err != nil {
			details = err.Error()
		}
		h.writeError(w, "Load failed", details, http.StatusBadGateway)
		return
	}
	if err != nil {
		// Loaded, but persisting or exporting failed
		h.log.Warn("Load finished with errors", zap.String("run_id", report.Run.ID), zap.Error(err))
	}

	h.writeJSON(w, map[string]interface{}{
		"run":     report.Run,
		"changed": report.Changed,
	}, http.StatusOK)
}

func (h *RunHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Warn("Failed to encode JSON", zap.Error(err))
	}
}

func (h *RunHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		h.log.Warn("Failed to encode error response", zap.Error(err))
	}
}
