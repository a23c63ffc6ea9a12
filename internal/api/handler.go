package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/notifyflow/internal/config"
	"github.com/gyaneshwarpardhi/notifyflow/internal/engine"
	"github.com/gyaneshwarpardhi/notifyflow/internal/event"
	"github.com/gyaneshwarpardhi/notifyflow/internal/metrics"
	"github.com/gyaneshwarpardhi/notifyflow/internal/preference"
	"github.com/gyaneshwarpardhi/notifyflow/internal/store"
)

const (
	maxBatchSize = 100
	maxBodyBytes = 1 << 20
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *engine.Engine
	store  store.Store
	loader *config.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes. loader may be nil,
// in which case template reload is unavailable.
func New(eng *engine.Engine, st store.Store, loader *config.Loader) http.Handler {
	h := &Handler{eng: eng, store: st, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/events", h.ingestEvent)
	h.mux.HandleFunc("POST /v1/events/batch", h.ingestBatch)
	h.mux.HandleFunc("GET /v1/notifications", h.listNotifications)
	h.mux.HandleFunc("GET /v1/notifications/{id}", h.getNotification)
	h.mux.HandleFunc("POST /v1/notifications/{id}/read", h.markRead)
	h.mux.HandleFunc("GET /v1/recipients/{recipient}/stats", h.stats)
	h.mux.HandleFunc("GET /v1/recipients/{recipient}/preferences", h.getPreferences)
	h.mux.HandleFunc("PUT /v1/recipients/{recipient}/preferences", h.putPreferences)
	h.mux.HandleFunc("GET /v1/templates", h.listTemplates)
	h.mux.HandleFunc("POST /v1/templates/reload", h.reloadTemplates)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// POST /v1/events: synchronous single-event routing.
func (h *Handler) ingestEvent(w http.ResponseWriter, r *http.Request) {
	var env event.Envelope
	if err := decodeBody(w, r, &env); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if err := env.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.eng.ProcessEvent(r.Context(), env.Recipient, env.ToEvent())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /v1/events/batch: async batch ingestion (up to 100 envelopes).
func (h *Handler) ingestBatch(w http.ResponseWriter, r *http.Request) {
	var envs []event.Envelope
	if err := decodeBody(w, r, &envs); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(envs) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one event")
		return
	}
	if len(envs) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(envs), maxBatchSize))
		return
	}
	for i := range envs {
		if err := envs[i].Validate(); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("events[%d]: %s", i, err))
			return
		}
	}

	jobID := uuid.New().String()
	queued := 0
	for i := range envs {
		if h.eng.Enqueue(envs[i].Recipient, envs[i].ToEvent()) {
			queued++
		}
	}
	if queued == 0 {
		writeError(w, http.StatusTooManyRequests, engine.ErrQueueFull.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":   jobID,
		"total":    len(envs),
		"queued":   queued,
		"rejected": len(envs) - queued,
	})
}

// GET /v1/notifications?recipient=&limit=: newest first.
func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	recipient := r.URL.Query().Get("recipient")
	if recipient == "" {
		writeError(w, http.StatusBadRequest, "recipient query parameter is required")
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", s))
			return
		}
		limit = n
	}
	list, err := h.store.ListNotifications(r.Context(), recipient, limit)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recipient":     recipient,
		"notifications": list,
	})
}

// GET /v1/notifications/{id}
func (h *Handler) getNotification(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.GetNotification(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// POST /v1/notifications/{id}/read: idempotent.
func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.eng.MarkRead(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	n, err := h.store.GetNotification(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// GET /v1/recipients/{recipient}/stats
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.Stats(r.Context(), r.PathValue("recipient"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GET /v1/recipients/{recipient}/preferences
func (h *Handler) getPreferences(w http.ResponseWriter, r *http.Request) {
	recipient := r.PathValue("recipient")
	prefs, err := h.store.Preferences(r.Context(), recipient)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if prefs == nil {
		prefs = []preference.Preference{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recipient":   recipient,
		"preferences": prefs,
	})
}

// PUT /v1/recipients/{recipient}/preferences: replaces every preference.
func (h *Handler) putPreferences(w http.ResponseWriter, r *http.Request) {
	recipient := r.PathValue("recipient")
	var prefs []preference.Preference
	if err := decodeBody(w, r, &prefs); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	var errs []error
	for i := range prefs {
		prefs[i].Normalize()
		if err := prefs[i].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("preferences[%d]: %w", i, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.SetPreferences(r.Context(), recipient, prefs); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recipient":   recipient,
		"preferences": prefs,
	})
}

// GET /v1/templates: list the loaded catalogue.
func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	version := ""
	if h.loader != nil {
		version = h.loader.Config().Version
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":   version,
		"templates": h.eng.Registry().All(),
	})
}

// POST /v1/templates/reload: hot-reload templates from disk.
func (h *Handler) reloadTemplates(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		writeError(w, http.StatusNotImplemented, "server was started without a config file")
		return
	}
	cfg, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	reg := cfg.Registry()
	h.eng.SwapRegistry(reg)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":        true,
		"templates_count": reg.Len(),
	})
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 if event queue >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}
