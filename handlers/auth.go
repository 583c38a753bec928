package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"focus-server/middleware"
	"focus-server/models"
	"focus-server/store"

	"go.uber.org/zap"
)

type AuthHandler struct {
	store  *store.Store
	auth   *middleware.Authenticator
	logger *zap.Logger
}

func NewAuthHandler(s *store.Store, auth *middleware.Authenticator, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{store: s, auth: auth, logger: logger.With(zap.String("component", "auth"))}
}

// Login pairs an extension context with the server. Without a configured
// passphrase any client is accepted.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !h.store.ValidatePassphrase(req.Passphrase) {
		h.logger.Info("login rejected", zap.String("client_name", req.ClientName))
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	name := strings.TrimSpace(req.ClientName)
	if name == "" {
		name = "extension"
	}

	client, err := h.store.CreateClient(name)
	if err != nil {
		h.logger.Error("create client failed", zap.Error(err))
		http.Error(w, "Failed to register client", http.StatusInternalServerError)
		return
	}

	token, err := h.auth.GenerateToken(client.ID, client.Name)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	h.logger.Info("client paired", zap.String("client_id", client.ID), zap.String("name", client.Name))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.AuthResponse{
		Token:  token,
		Client: *client,
	})
}
