package response_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardline/guardline/internal/api/middleware"
	"github.com/guardline/guardline/internal/api/models"
	"github.com/guardline/guardline/internal/api/response"
)

// tracedRequest runs a request through the RequestID middleware so the
// context carries an ID like it would inside a handler.
func tracedRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()

	var traced *http.Request
	middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		traced = r
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, path, http.NoBody))

	return traced
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) models.Problem {
	t.Helper()

	var problem models.Problem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&problem))
	return problem
}

func TestJSON(t *testing.T) {
	req := tracedRequest(t, http.MethodGet, "/v1/me")
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, map[string]string{"id": "usr_1"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("X-Request-Id"), "req_")
}

func TestJSON_NoRequestIDInContext(t *testing.T) {
	rec := httptest.NewRecorder()
	response.JSON(rec, httptest.NewRequest(http.MethodGet, "/v1/me", http.NoBody), http.StatusOK, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Request-Id"))
}

func TestJSON_NilDataHasEmptyBody(t *testing.T) {
	rec := httptest.NewRecorder()
	response.JSON(rec, tracedRequest(t, http.MethodGet, "/v1/me"), http.StatusOK, nil)

	assert.Zero(t, rec.Body.Len())
}

func TestCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Created(rec, tracedRequest(t, http.MethodPost, "/v1/sos/events"),
		"/v1/sos/events/evt_123", map[string]string{"id": "evt_123"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/v1/sos/events/evt_123", rec.Header().Get("Location"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestAccepted(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Accepted(rec, tracedRequest(t, http.MethodPost, "/v1/jobs"),
		"/v1/jobs/456", map[string]string{"status": "pending"})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "/v1/jobs/456", rec.Header().Get("Location"))
}

func TestNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	response.NoContent(rec, tracedRequest(t, http.MethodDelete, "/v1/me/devices/dev_1"))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Zero(t, rec.Body.Len())
}

func TestProblemWriters(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter, r *http.Request)
		wantStatus int
	}{
		{"bad request", func(w http.ResponseWriter, r *http.Request) {
			response.BadRequest(w, r, "validation failed", []models.FieldError{{Field: "phone", Message: "required"}})
		}, http.StatusBadRequest},
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) {
			response.Unauthorized(w, r, "invalid token")
		}, http.StatusUnauthorized},
		{"forbidden", func(w http.ResponseWriter, r *http.Request) {
			response.Forbidden(w, r, "not the event sender")
		}, http.StatusForbidden},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			response.NotFound(w, r, "event not found")
		}, http.StatusNotFound},
		{"conflict", func(w http.ResponseWriter, r *http.Request) {
			response.Conflict(w, r, "phone already claimed")
		}, http.StatusConflict},
		{"internal error", func(w http.ResponseWriter, r *http.Request) {
			response.InternalError(w, r, "something went wrong")
		}, http.StatusInternalServerError},
		{"service unavailable", func(w http.ResponseWriter, r *http.Request) {
			response.ServiceUnavailable(w, r, "database unreachable")
		}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tracedRequest(t, http.MethodPost, "/v1/test")
			rec := httptest.NewRecorder()

			tt.write(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			problem := decodeProblem(t, rec)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, "/v1/test", problem.Instance)
			assert.NotEmpty(t, problem.TraceID)
		})
	}
}

func TestTooManyRequests_WithInfoSetsHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	response.TooManyRequestsWithInfo(rec, tracedRequest(t, http.MethodPost, "/v1/sos/events"),
		"dispatch budget exhausted", &response.RateLimitInfo{
			Limit:      3,
			Remaining:  0,
			ResetAt:    1704067200,
			RetryAfter: 60,
		})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1704067200", rec.Header().Get("X-RateLimit-Reset"))
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	problem := decodeProblem(t, rec)
	assert.Equal(t, http.StatusTooManyRequests, problem.Status)
}

func TestTooManyRequests_WithoutInfoOmitsHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	response.TooManyRequests(rec, tracedRequest(t, http.MethodPost, "/v1/sos/events"), "slow down")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	assert.Empty(t, rec.Header().Get("Retry-After"))
}

func TestClientRequestIDFlowsThrough(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/me", http.NoBody)
	req.Header.Set("X-Request-Id", "req_client123")

	var traced *http.Request
	middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		traced = r
	})).ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	response.JSON(rec, traced, http.StatusOK, map[string]string{"status": "ok"})

	assert.Equal(t, "req_client123", rec.Header().Get("X-Request-Id"))
}

func TestGetRequestID_EmptyContext(t *testing.T) {
	assert.Empty(t, middleware.GetRequestID(context.Background()))
}
