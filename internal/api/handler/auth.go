package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/guardline/guardline/internal/account"
	"github.com/guardline/guardline/internal/api/models"
	"github.com/guardline/guardline/internal/api/response"
	"github.com/guardline/guardline/internal/auth"
)

// AuthHandler handles token minting for development and testing.
// The endpoint is disabled in production deployments.
type AuthHandler struct {
	accounts *account.Service
	jwt      *auth.JWTService
	enabled  bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts *account.Service, jwt *auth.JWTService, enabled bool) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		jwt:      jwt,
		enabled:  enabled,
	}
}

// MintToken handles POST /v1/auth/token - mint an access token for an
// email, creating the account on first use.
func (h *AuthHandler) MintToken(w http.ResponseWriter, r *http.Request) {
	if !h.enabled {
		response.NotFound(w, r, "token minting is disabled")
		return
	}

	var input models.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if !strings.Contains(input.Email, "@") {
		response.BadRequest(w, r, "a valid email is required", []models.FieldError{
			{Field: "email", Message: "must be a valid email address"},
		})
		return
	}

	acct, err := h.accounts.FindOrCreateByEmail(r.Context(), input.Email)
	if err != nil {
		response.InternalError(w, r, "could not resolve account")
		return
	}

	token, expiresAt, err := h.jwt.GenerateAccessToken(acct.ID)
	if err != nil {
		response.InternalError(w, r, "could not mint token")
		return
	}

	response.JSON(w, r, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   models.Timestamp(expiresAt),
	})
}
