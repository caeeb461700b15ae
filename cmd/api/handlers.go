package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"dca-trade-bot-go/internal/store"

	"go.uber.org/zap"
)

const defaultTradesLimit = 100

// APIHandler holds dependencies for the read-only API endpoints.
type APIHandler struct {
	log   *zap.Logger
	store *store.Store
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, st *store.Store) *APIHandler {
	return &APIHandler{log: log, store: st}
}

// HealthHandler reports liveness.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.log, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// TradesHandler returns recorded trades, newest first.
// Query params: skip (offset, default 0) and limit (default 100).
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", defaultTradesLimit)

	trades, err := h.store.GetTrades(limit, skip)
	if err != nil {
		h.log.Error("Failed to get trades from database", zap.Error(err))
		http.Error(w, "Failed to get trades", http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.log, trades)
}

// PositionsHandler returns all positions.
func (h *APIHandler) PositionsHandler(w http.ResponseWriter, r *http.Request) {
	positions, err := h.store.GetPositions()
	if err != nil {
		h.log.Error("Failed to get positions from database", zap.Error(err))
		http.Error(w, "Failed to get positions", http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.log, positions)
}

func writeJSON(w http.ResponseWriter, log *zap.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", zap.Error(err))
	}
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
