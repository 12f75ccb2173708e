package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/guardline/guardline/internal/api/models"
	"github.com/guardline/guardline/internal/api/response"
	"github.com/guardline/guardline/internal/dispatch"
	"github.com/guardline/guardline/internal/sos"
)

// SOSHandler handles SOS event endpoints.
type SOSHandler struct {
	events     *sos.Service
	dispatcher *dispatch.Dispatcher
}

// NewSOSHandler creates a new SOSHandler.
func NewSOSHandler(events *sos.Service, dispatcher *dispatch.Dispatcher) *SOSHandler {
	return &SOSHandler{
		events:     events,
		dispatcher: dispatcher,
	}
}

// CreateEvent handles POST /v1/sos/events - store an emergency event.
func (h *SOSHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var input models.SOSEventCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	event, err := h.events.Create(
		r.Context(),
		GetAccountID(r.Context()),
		input.Message,
		input.Location.Lat,
		input.Location.Lon,
	)
	if err != nil {
		switch {
		case errors.Is(err, sos.ErrMessageTooLong):
			response.BadRequest(w, r, "message is too long", []models.FieldError{
				{Field: "message", Message: fmt.Sprintf("must be at most %d characters", sos.MaxMessageLen)},
			})
		case errors.Is(err, sos.ErrInvalidCoords):
			response.BadRequest(w, r, "location is out of range", []models.FieldError{
				{Field: "location", Message: "lat must be in [-90,90], lon in [-180,180]"},
			})
		default:
			response.InternalError(w, r, "could not create event")
		}
		return
	}

	location := fmt.Sprintf("/v1/sos/events/%s", event.ID)
	response.Created(w, r, location, toSOSEventModel(event))
}

// GetEvent handles GET /v1/sos/events/{eventId} - read an event. Only
// the sender and contacts with an accepted trust edge from the sender
// may read it.
func (h *SOSHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	if eventID == "" {
		response.BadRequest(w, r, "eventId is required", nil)
		return
	}

	event, err := h.events.Get(r.Context(), GetAccountID(r.Context()), eventID)
	if err != nil {
		switch {
		case errors.Is(err, sos.ErrEventNotFound):
			response.NotFound(w, r, "event not found")
		case errors.Is(err, sos.ErrReadDenied):
			response.Forbidden(w, r, "not authorized to read this event")
		default:
			response.InternalError(w, r, "could not load event")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, toSOSEventModel(event))
}

// DispatchEvent handles POST /v1/sos/events/{eventId}/dispatch - fan the
// event out to the devices of every accepted contact.
func (h *SOSHandler) DispatchEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	if eventID == "" {
		response.BadRequest(w, r, "eventId is required", nil)
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), GetAccountID(r.Context()), eventID)
	if err != nil {
		switch {
		case errors.Is(err, sos.ErrEventNotFound):
			response.NotFound(w, r, "event not found")
		case errors.Is(err, dispatch.ErrDispatchDenied):
			response.Forbidden(w, r, "only the sender may dispatch an event")
		case errors.Is(err, dispatch.ErrRateLimited):
			response.TooManyRequests(w, r, "dispatch rate limit exceeded, try again later")
		default:
			response.InternalError(w, r, "could not dispatch event")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, models.DispatchResult{
		Sent:       result.Sent,
		Recipients: result.Recipients,
		Tokens:     result.Tokens,
		ExpoTokens: result.ExpoTokens,
		WebTokens:  result.WebTokens,
		Errors:     result.Errors,
	})
}

func toSOSEventModel(event *sos.Event) models.SOSEvent {
	return models.SOSEvent{
		ID:       event.ID,
		SenderID: event.SenderID,
		Message:  event.Message,
		Location: models.Point{
			Lat: event.Lat,
			Lon: event.Lon,
		},
		CreatedAt: models.Timestamp(event.CreatedAt),
	}
}
