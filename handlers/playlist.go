package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"focus-server/audio"
	"focus-server/models"
	"focus-server/store"

	"go.uber.org/zap"
)

type PlaylistHandler struct {
	store  *store.Store
	logger *zap.Logger
}

func NewPlaylistHandler(s *store.Store, logger *zap.Logger) *PlaylistHandler {
	return &PlaylistHandler{store: s, logger: logger.With(zap.String("component", "playlist"))}
}

// List returns the built-in tracks followed by the custom ones.
func (h *PlaylistHandler) List(w http.ResponseWriter, r *http.Request) {
	custom, err := h.store.ListTracks()
	if err != nil {
		h.logger.Error("list tracks failed", zap.Error(err))
		http.Error(w, "Failed to fetch playlist", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(audio.Playlist(custom))
}

func (h *PlaylistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Src = strings.TrimSpace(req.Src)
	if req.Title == "" || req.Src == "" {
		http.Error(w, "Title and src are required", http.StatusBadRequest)
		return
	}
	if req.Icon == "" {
		req.Icon = "🎵"
	}

	track, err := h.store.AddTrack(req.Title, req.Artist, req.Icon, req.Src)
	if err != nil {
		h.logger.Error("add track failed", zap.Error(err))
		http.Error(w, "Failed to add track", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(track)
}

func (h *PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Track ID required", http.StatusBadRequest)
		return
	}

	if err := h.store.RemoveTrack(id); err != nil {
		h.logger.Error("remove track failed", zap.String("id", id), zap.Error(err))
		http.Error(w, "Failed to remove track", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}
