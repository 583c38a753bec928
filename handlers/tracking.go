package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"focus-server/models"
	"focus-server/tracking"

	"go.uber.org/zap"
)

type TrackingHandler struct {
	tracker *tracking.Aggregator
	logger  *zap.Logger
}

func NewTrackingHandler(tracker *tracking.Aggregator, logger *zap.Logger) *TrackingHandler {
	return &TrackingHandler{tracker: tracker, logger: logger.With(zap.String("component", "tracking"))}
}

func (h *TrackingHandler) Data(w http.ResponseWriter, r *http.Request) {
	data, err := h.tracker.TrackingData()
	if err != nil {
		h.logger.Error("load tracking data failed", zap.Error(err))
		http.Error(w, "Failed to load tracking data", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *TrackingHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.tracker.Analytics()
	if err != nil {
		h.logger.Error("compute analytics failed", zap.Error(err))
		http.Error(w, "Failed to compute analytics", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(analytics)
}

// ActiveTime accepts a heartbeat from a content script.
func (h *TrackingHandler) ActiveTime(w http.ResponseWriter, r *http.Request) {
	var req models.RecordActiveTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.tracker.RecordActiveSeconds(req.Domain, req.Seconds)
	if errors.Is(err, tracking.ErrInvalidSeconds) || errors.Is(err, tracking.ErrEmptyDomain) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("record active time failed", zap.Error(err))
		http.Error(w, "Failed to record active time", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
