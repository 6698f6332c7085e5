package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/alexedwards/argon2id"

	"github.com/construction-robotics/site-coordination/pkg/auth"
	"github.com/construction-robotics/site-coordination/pkg/logger"
)

type loginRequest struct {
	Password string `json:"password"`
}

// AdminLogin verifies the configured admin password and issues a JWT.
func (h *Handlers) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if h.config.Auth.AdminPasswordHash == "" {
		writeError(w, http.StatusInternalServerError, "Admin login is not configured")
		return
	}

	match, err := argon2id.ComparePasswordAndHash(req.Password, h.config.Auth.AdminPasswordHash)
	if err != nil || !match {
		writeError(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	token, err := auth.NewAdminToken(h.config.Auth.JWTSecret, h.config.Auth.AdminTokenTTL)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to issue admin token", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
