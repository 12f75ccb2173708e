package handler

import (
	"context"

	"github.com/guardline/guardline/internal/api/middleware"
)

// GetAccountID retrieves the authenticated account ID from the context.
// This is a convenience wrapper around middleware.GetAccountID.
func GetAccountID(ctx context.Context) string {
	return middleware.GetAccountID(ctx)
}
