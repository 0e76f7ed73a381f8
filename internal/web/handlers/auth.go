package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kozaktomas/id-verifier/internal/config"
	"github.com/kozaktomas/id-verifier/internal/web/middleware"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	config         *config.Config
	sessionManager *middleware.SessionManager
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(cfg *config.Config, sm *middleware.SessionManager) *AuthHandler {
	return &AuthHandler{
		config:         cfg,
		sessionManager: sm,
	}
}

// loginRequest represents a login request
type loginRequest struct {
	username string
	password string
}

func (l *loginRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal login request: %w", err)
	}
	l.username = raw["username"]
	l.password = raw["password"]
	return nil
}

// LoginResponse represents a login response
type LoginResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Login validates the configured operator credentials and opens a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if req.username == "" || req.password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	if h.config.Web.Username == "" {
		respondError(w, http.StatusBadRequest, "authentication is not configured")
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.username), []byte(h.config.Web.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.password), []byte(h.config.Web.Password)) == 1
	if !userOK || !passOK {
		respondJSON(w, http.StatusUnauthorized, LoginResponse{
			Success: false,
			Error:   "invalid credentials",
		})
		return
	}

	session, err := h.sessionManager.CreateSession(req.username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.sessionManager.SetSessionCookie(w, session)

	respondJSON(w, http.StatusOK, LoginResponse{
		Success:   true,
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
	})
}

// Logout closes the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session != nil {
		h.sessionManager.DeleteSession(session.ID)
	}

	h.sessionManager.ClearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// StatusResponse represents the auth status response
type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
}

// Status checks if the user is authenticated by validating the session.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session == nil {
		respondJSON(w, http.StatusOK, StatusResponse{Authenticated: false})
		return
	}
	respondJSON(w, http.StatusOK, StatusResponse{
		Authenticated: true,
		Username:      session.Username,
		ExpiresAt:     session.ExpiresAt.Format(time.RFC3339),
	})
}
