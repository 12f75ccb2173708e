package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/guardline/guardline/internal/account"
	"github.com/guardline/guardline/internal/api/models"
	"github.com/guardline/guardline/internal/api/response"
)

// MeHandler handles the authenticated account's profile endpoints.
type MeHandler struct {
	accounts *account.Service
}

// NewMeHandler creates a new MeHandler.
func NewMeHandler(accounts *account.Service) *MeHandler {
	return &MeHandler{accounts: accounts}
}

// GetMe handles GET /v1/me - the caller's profile.
func (h *MeHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	acct, err := h.accounts.Get(r.Context(), GetAccountID(r.Context()))
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			response.NotFound(w, r, "account not found")
			return
		}
		response.InternalError(w, r, "could not load account")
		return
	}

	response.JSON(w, r, http.StatusOK, toAccountModel(acct))
}

// ClaimPhone handles PUT /v1/me/phone - claim a phone number for the
// caller. Numbers are globally unique and immutable once claimed.
func (h *MeHandler) ClaimPhone(w http.ResponseWriter, r *http.Request) {
	var input models.PhoneClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	accountID := GetAccountID(r.Context())

	if _, err := h.accounts.ClaimPhone(r.Context(), accountID, input.Phone); err != nil {
		switch {
		case errors.Is(err, account.ErrInvalidPhone):
			response.BadRequest(w, r, "phone number is not a valid E.164 number", []models.FieldError{
				{Field: "phone", Message: "must be a valid phone number"},
			})
		case errors.Is(err, account.ErrPhoneTaken):
			response.Conflict(w, r, "phone number is already claimed by another account")
		case errors.Is(err, account.ErrPhoneImmutable):
			response.PreconditionFailed(w, r, "account already has a different phone number")
		case errors.Is(err, account.ErrAccountNotFound):
			response.NotFound(w, r, "account not found")
		default:
			response.InternalError(w, r, "could not claim phone number")
		}
		return
	}

	acct, err := h.accounts.Get(r.Context(), accountID)
	if err != nil {
		response.InternalError(w, r, "could not load account")
		return
	}

	response.JSON(w, r, http.StatusOK, toAccountModel(acct))
}

func toAccountModel(acct *account.Account) models.Account {
	return models.Account{
		ID:        acct.ID,
		Email:     acct.Email,
		Phone:     acct.Phone,
		CreatedAt: models.Timestamp(acct.CreatedAt),
		UpdatedAt: models.Timestamp(acct.UpdatedAt),
	}
}
