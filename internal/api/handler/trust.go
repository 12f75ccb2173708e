package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/guardline/guardline/internal/api/models"
	"github.com/guardline/guardline/internal/api/response"
	"github.com/guardline/guardline/internal/trust"
)

// TrustHandler handles trust graph endpoints.
type TrustHandler struct {
	trust *trust.Service
}

// NewTrustHandler creates a new TrustHandler.
func NewTrustHandler(trustService *trust.Service) *TrustHandler {
	return &TrustHandler{trust: trustService}
}

// Request handles POST /v1/me/trusted - send a trust request to a
// contact identified by email or phone.
func (h *TrustHandler) Request(w http.ResponseWriter, r *http.Request) {
	var input models.TrustRequestCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if (input.Email == "") == (input.Phone == "") {
		response.BadRequest(w, r, "exactly one of email or phone is required", nil)
		return
	}

	edge, err := h.trust.Request(r.Context(), GetAccountID(r.Context()), trust.RequestInput{
		Email: input.Email,
		Phone: input.Phone,
	})
	if err != nil {
		switch {
		case errors.Is(err, trust.ErrContactNotFound):
			response.NotFound(w, r, "no account matches the given contact")
		case errors.Is(err, trust.ErrSelfTrust):
			response.BadRequest(w, r, "cannot send a trust request to yourself", nil)
		case errors.Is(err, trust.ErrEdgeExists):
			response.Conflict(w, r, "a trust request to this contact already exists")
		default:
			response.InternalError(w, r, "could not create trust request")
		}
		return
	}

	location := fmt.Sprintf("/v1/me/trusted/%s", edge.TrustedID)
	response.Created(w, r, location, toTrustEdgeModel(edge))
}

// ListOutgoing handles GET /v1/me/trusted - the caller's outgoing edges.
func (h *TrustHandler) ListOutgoing(w http.ResponseWriter, r *http.Request) {
	edges, err := h.trust.ListOutgoing(r.Context(), GetAccountID(r.Context()))
	if err != nil {
		response.InternalError(w, r, "could not list trusted contacts")
		return
	}
	response.JSON(w, r, http.StatusOK, toTrustEdgeList(edges))
}

// ListIncoming handles GET /v1/me/trusted/incoming - trust requests
// awaiting or past the caller's decision.
func (h *TrustHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	edges, err := h.trust.ListIncoming(r.Context(), GetAccountID(r.Context()))
	if err != nil {
		response.InternalError(w, r, "could not list incoming trust requests")
		return
	}
	response.JSON(w, r, http.StatusOK, toTrustEdgeList(edges))
}

// Respond handles POST /v1/me/trusted/{ownerId}/respond - accept or
// reject an incoming trust request.
func (h *TrustHandler) Respond(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerId")
	if ownerID == "" {
		response.BadRequest(w, r, "ownerId is required", nil)
		return
	}

	var input models.TrustRespondRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	edge, err := h.trust.Respond(r.Context(), GetAccountID(r.Context()), ownerID, trust.Status(input.Decision))
	if err != nil {
		switch {
		case errors.Is(err, trust.ErrInvalidDecision):
			response.BadRequest(w, r, "decision must be accepted or rejected", []models.FieldError{
				{Field: "decision", Message: "must be one of: accepted, rejected"},
			})
		case errors.Is(err, trust.ErrEdgeNotFound):
			response.NotFound(w, r, "no trust request from this account")
		case errors.Is(err, trust.ErrAlreadyResponded):
			response.Conflict(w, r, "trust request has already been responded to")
		default:
			response.InternalError(w, r, "could not respond to trust request")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, toTrustEdgeModel(edge))
}

// Remove handles DELETE /v1/me/trusted/{contactId} - cancel or revoke an
// outgoing edge.
func (h *TrustHandler) Remove(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, chi.URLParam(r, "contactId"), false)
}

// RemoveIncoming handles DELETE /v1/me/trusted/incoming/{ownerId} -
// withdraw consent for an incoming edge.
func (h *TrustHandler) RemoveIncoming(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, chi.URLParam(r, "ownerId"), true)
}

func (h *TrustHandler) remove(w http.ResponseWriter, r *http.Request, otherID string, incoming bool) {
	if otherID == "" {
		response.BadRequest(w, r, "account id is required", nil)
		return
	}

	err := h.trust.Remove(r.Context(), GetAccountID(r.Context()), otherID, incoming)
	if err != nil {
		if errors.Is(err, trust.ErrEdgeNotFound) {
			response.NotFound(w, r, "no trust edge with this account")
			return
		}
		response.InternalError(w, r, "could not remove trust edge")
		return
	}

	response.NoContent(w, r)
}

func toTrustEdgeModel(edge *trust.Edge) models.TrustEdge {
	m := models.TrustEdge{
		OwnerID:     edge.OwnerID,
		ContactID:   edge.TrustedID,
		Status:      string(edge.Status),
		RequestedAt: models.Timestamp(edge.RequestedAt),
	}
	if edge.RespondedAt != nil {
		ts := models.Timestamp(*edge.RespondedAt)
		m.RespondedAt = &ts
	}
	return m
}

func toTrustEdgeList(edges []*trust.Edge) models.TrustEdgeList {
	list := models.TrustEdgeList{Items: make([]models.TrustEdge, 0, len(edges))}
	for _, edge := range edges {
		list.Items = append(list.Items, toTrustEdgeModel(edge))
	}
	return list
}
