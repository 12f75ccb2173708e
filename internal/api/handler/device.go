package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/guardline/guardline/internal/api/models"
	"github.com/guardline/guardline/internal/api/response"
	"github.com/guardline/guardline/internal/device"
)

// DeviceHandler handles device registry endpoints.
type DeviceHandler struct {
	devices *device.Service
}

// NewDeviceHandler creates a new DeviceHandler.
func NewDeviceHandler(devices *device.Service) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

// ListDevices handles GET /v1/me/devices - list registered devices.
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.devices.List(r.Context(), GetAccountID(r.Context()))
	if err != nil {
		response.InternalError(w, r, "could not list devices")
		return
	}

	list := models.DeviceList{Items: make([]models.Device, 0, len(devices))}
	for _, d := range devices {
		list.Items = append(list.Items, toDeviceModel(d))
	}
	response.JSON(w, r, http.StatusOK, list)
}

// RegisterDevice handles POST /v1/me/devices - register a push token,
// creating or merging the device record.
func (h *DeviceHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var input models.DeviceRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	var fieldErrors []models.FieldError
	if input.DeviceID == "" {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "deviceId", Message: "is required"})
	}
	if input.Token == "" {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "token", Message: "is required"})
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "missing required fields", fieldErrors)
		return
	}

	d, created, err := h.devices.Register(
		r.Context(),
		GetAccountID(r.Context()),
		input.DeviceID,
		device.TransportKind(input.Transport),
		input.Token,
	)
	if err != nil {
		if errors.Is(err, device.ErrInvalidKind) {
			response.BadRequest(w, r, "unknown transport", []models.FieldError{
				{Field: "transport", Message: "must be one of: expo-push, web-push"},
			})
			return
		}
		response.InternalError(w, r, "could not register device")
		return
	}

	if created {
		location := fmt.Sprintf("/v1/me/devices/%s", d.ID)
		response.Created(w, r, location, toDeviceModel(d))
		return
	}
	response.JSON(w, r, http.StatusOK, toDeviceModel(d))
}

// UnregisterDevice handles DELETE /v1/me/devices/{deviceId} - remove a
// device registration.
func (h *DeviceHandler) UnregisterDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceId")
	if deviceID == "" {
		response.BadRequest(w, r, "deviceId is required", nil)
		return
	}

	err := h.devices.Unregister(r.Context(), GetAccountID(r.Context()), deviceID)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			response.NotFound(w, r, "device not found")
			return
		}
		response.InternalError(w, r, "could not unregister device")
		return
	}

	response.NoContent(w, r)
}

func toDeviceModel(d *device.Device) models.Device {
	m := models.Device{
		ID:        d.ID,
		CreatedAt: models.Timestamp(d.CreatedAt),
		UpdatedAt: models.Timestamp(d.UpdatedAt),
	}
	if d.ExpoToken != nil {
		m.Transports = append(m.Transports, models.DeviceTransport{
			Transport:  string(device.KindExpoPush),
			TokenLast4: device.TokenLast4(*d.ExpoToken),
		})
	}
	if d.WebPushToken != nil {
		m.Transports = append(m.Transports, models.DeviceTransport{
			Transport:  string(device.KindWebPush),
			TokenLast4: device.TokenLast4(*d.WebPushToken),
		})
	}
	return m
}
