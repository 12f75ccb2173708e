package models

// DeviceRegisterRequest is the request body for POST /v1/me/devices.
type DeviceRegisterRequest struct {
	DeviceID  string `json:"deviceId" validate:"required"`
	Transport string `json:"transport" validate:"required,oneof=expo-push web-push"`
	Token     string `json:"token" validate:"required"`
}

// DeviceTransport describes one registered token on a device, with only
// the token tail exposed.
type DeviceTransport struct {
	Transport  string `json:"transport"`
	TokenLast4 string `json:"tokenLast4"`
}

// Device represents a registered push device.
type Device struct {
	ID         string            `json:"id"`
	Transports []DeviceTransport `json:"transports"`
	CreatedAt  Timestamp         `json:"createdAt"`
	UpdatedAt  Timestamp         `json:"updatedAt"`
}

// DeviceList is a list of registered devices.
type DeviceList struct {
	Items []Device `json:"items"`
}
