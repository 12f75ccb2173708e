package models

// Account represents the authenticated account's profile.
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// PhoneClaimRequest is the request body for PUT /v1/me/phone.
type PhoneClaimRequest struct {
	Phone string `json:"phone" validate:"required"`
}
