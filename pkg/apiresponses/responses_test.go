package apiresponses

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) APIError {
	t.Helper()
	var body APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		respond    func(c *gin.Context)
		wantStatus int
		wantCode   string
		wantError  string
	}{
		{
			name:       "not found",
			respond:    func(c *gin.Context) { RespondNotFound(c, "/api/unknown") },
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
			wantError:  "no API endpoint at /api/unknown",
		},
		{
			name:       "too many requests",
			respond:    func(c *gin.Context) { RespondTooManyRequests(c, 0) },
			wantStatus: http.StatusTooManyRequests,
			wantCode:   "RATE_LIMITED",
			wantError:  "rate limit exceeded, please try again later",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newContext()
			tt.respond(c)
			assert.Equal(t, tt.wantStatus, w.Code)
			body := decode(t, w)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantError, body.Error)
			assert.Empty(t, body.Details)
		})
	}
}

func TestRespondTooManyRequestsRetryAfter(t *testing.T) {
	c, w := newContext()
	RespondTooManyRequests(c, 1500*time.Millisecond)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))

	c, w = newContext()
	RespondTooManyRequests(c, 0)
	assert.Empty(t, w.Header().Get("Retry-After"))
}

func TestRespondBadRequestWithDetails(t *testing.T) {
	c, w := newContext()
	RespondBadRequestWithDetails(c, "invalid path", "got tutor")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "BAD_REQUEST", body.Code)
	assert.Equal(t, "got tutor", body.Details)
}

func TestRespondInternalErrorLogsButSanitizes(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	c, w := newContext()
	RespondInternalError(c, "render layout", errors.New("template: secret detail"), zap.New(core).Sugar())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "failed to render layout", body.Error)
	assert.NotContains(t, w.Body.String(), "secret detail")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Failed to render layout", logs.All()[0].Message)

	c, w = newContext()
	RespondInternalError(c, "render layout", errors.New("x"), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRespondOK(t *testing.T) {
	c, w := newContext()
	RespondOK(c, gin.H{"ok": true})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}
