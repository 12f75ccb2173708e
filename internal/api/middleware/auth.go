package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/guardline/guardline/internal/api/models"
	"github.com/guardline/guardline/internal/auth"
)

type accountIDKey struct{}

// Auth validates the bearer token on every request and stores the
// authenticated account ID in the request context.
func Auth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, r, "missing or malformed authorization header")
				return
			}

			claims, err := jwtService.ValidateAccessToken(token)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrAccessTokenExpired):
					unauthorized(w, r, "access token has expired")
				case errors.Is(err, auth.ErrInvalidAccessToken):
					unauthorized(w, r, "invalid access token")
				default:
					unauthorized(w, r, "authentication failed")
				}
				return
			}

			ctx := context.WithValue(r.Context(), accountIDKey{}, claims.AccountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken pulls the token out of the Authorization header. The scheme
// comparison is case-insensitive per RFC 9110.
func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

// unauthorized writes the 401 problem directly. Using the response package
// here would create an import cycle.
func unauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	problem := models.NewUnauthorized(GetRequestID(r.Context()), detail)
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// GetAccountID returns the authenticated account ID, or an empty string
// outside an authenticated request.
func GetAccountID(ctx context.Context) string {
	if id, ok := ctx.Value(accountIDKey{}).(string); ok {
		return id
	}
	return ""
}
