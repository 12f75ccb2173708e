package models

// TrustRequestCreate is the request body for POST /v1/me/trusted.
// Exactly one of email or phone identifies the contact.
type TrustRequestCreate struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// TrustRespondRequest is the request body for responding to an incoming
// trust request.
type TrustRespondRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accepted rejected"`
}

// TrustEdge represents one direction of the trust graph.
type TrustEdge struct {
	OwnerID     string     `json:"ownerId"`
	ContactID   string     `json:"contactId"`
	Status      string     `json:"status"`
	RequestedAt Timestamp  `json:"requestedAt"`
	RespondedAt *Timestamp `json:"respondedAt,omitempty"`
}

// TrustEdgeList is a list of trust edges.
type TrustEdgeList struct {
	Items []TrustEdge `json:"items"`
}
