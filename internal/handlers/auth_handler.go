package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"golang.org/x/oauth2"

	"meducare/internal/service"
	"meducare/internal/validation"
)

// AuthHandler handles the account endpoints
type AuthHandler struct {
	authService          *service.AuthService
	emailService         *service.EmailService
	googleOAuth          *oauth2.Config
	oauthRedirectBaseURL string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, emailService *service.EmailService, googleOAuth *oauth2.Config, oauthRedirectBaseURL string) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		emailService:         emailService,
		googleOAuth:          googleOAuth,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	user, err := h.authService.Register(req.Email, req.Password, req.Name)
	if err != nil {
		respondWithAuthError(w, err, "registration failed")
		return
	}

	if h.emailService != nil && h.emailService.IsEnabled() {
		go func() {
			if err := h.emailService.SendWelcomeEmail(context.Background(), user.Email, user.Name); err != nil {
				log.Printf("failed to send welcome email to %s: %v", user.Email, err)
			}
		}()
	}

	tokens, _, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Account created but login failed", "post-register login failed", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"user":   user,
		"tokens": tokens,
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	tokens, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondWithAuthError(w, err, "login failed")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"user":   user,
		"tokens": tokens,
	})
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	tokens, user, err := h.authService.Refresh(req.RefreshToken)
	if err != nil {
		respondWithAuthError(w, err, "token refresh failed")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"user":   user,
		"tokens": tokens,
	})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	if err := h.authService.Logout(req.RefreshToken); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Logout failed", "logout failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated", "", nil)
		return
	}

	user, err := h.authService.GetUser(userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load account", "me lookup failed", err)
		return
	}
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, "Account no longer exists", "", nil)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

// RequestPasswordReset handles POST /api/auth/password-reset/request.
// The response never reveals whether the account exists.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), h.emailService, req.Email); err != nil {
		log.Printf("password reset request failed: %v", err)
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "If an account exists for that address, a reset email is on its way",
	})
}

// ValidatePasswordResetToken handles GET /api/auth/password-reset/validate
func (h *AuthHandler) ValidatePasswordResetToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondWithError(w, http.StatusBadRequest, "Missing token", "", nil)
		return
	}

	valid, err := h.authService.ValidatePasswordResetToken(token)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to validate token", "reset token validation failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

// ResetPassword handles POST /api/auth/password-reset/confirm
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	if err := h.authService.ResetPassword(req.Token, req.NewPassword); err != nil {
		var verr validation.ValidationError
		if errors.As(err, &verr) {
			respondWithError(w, http.StatusBadRequest, verr.Error(), "", nil)
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error(), "password reset failed", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

// respondWithAuthError maps service errors onto HTTP statuses
func respondWithAuthError(w http.ResponseWriter, err error, logMsg string) {
	var verr validation.ValidationError
	switch {
	case errors.As(err, &verr):
		respondWithError(w, http.StatusBadRequest, verr.Error(), "", nil)
	case errors.Is(err, service.ErrEmailTaken):
		respondWithError(w, http.StatusConflict, "An account with this email already exists", "", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "Invalid email or password", "", nil)
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrSessionExpired):
		respondWithError(w, http.StatusUnauthorized, "Session is no longer valid", "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, "Something went wrong", logMsg, err)
	}
}
