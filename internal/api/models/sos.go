package models

// SOSEventCreateRequest is the request body for POST /v1/sos/events.
type SOSEventCreateRequest struct {
	Message  string `json:"message"`
	Location Point  `json:"location" validate:"required"`
}

// SOSEvent represents a stored emergency event.
type SOSEvent struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"senderId"`
	Message   string    `json:"message,omitempty"`
	Location  Point     `json:"location"`
	CreatedAt Timestamp `json:"createdAt"`
}

// DispatchResult summarizes a fan-out of an SOS event to trusted
// contacts' devices.
type DispatchResult struct {
	Sent       int `json:"sent"`
	Recipients int `json:"recipients"`
	Tokens     int `json:"tokens"`
	ExpoTokens int `json:"expoTokens"`
	WebTokens  int `json:"webTokens"`
	Errors     int `json:"errors"`
}
