package models

// TokenRequest is the request body for the development token mint.
type TokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// TokenResponse carries a freshly minted access token.
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   Timestamp `json:"expiresAt"`
}
