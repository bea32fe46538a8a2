package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithError(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithCodedError(w, http.StatusConflict, "NO_BID_TO_ACCEPT", "No bid to accept")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "No bid to accept", body.Error)
	assert.Equal(t, "NO_BID_TO_ACCEPT", body.Code)
}

func TestPanicRecoveryMiddleware(t *testing.T) {
	handler := PanicRecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
}

func TestGetEnvHelpers(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		t.Setenv("PORTAL_TEST_STRING", "value")
		assert.Equal(t, "value", GetEnvOrDefault("PORTAL_TEST_STRING", "default"))
		assert.Equal(t, "default", GetEnvOrDefault("PORTAL_TEST_UNSET", "default"))
	})

	t.Run("int", func(t *testing.T) {
		t.Setenv("PORTAL_TEST_INT", "3")
		assert.Equal(t, 3, GetEnvIntOrDefault("PORTAL_TEST_INT", 1))
		t.Setenv("PORTAL_TEST_INT", "three")
		assert.Equal(t, 1, GetEnvIntOrDefault("PORTAL_TEST_INT", 1))
	})

	t.Run("bool", func(t *testing.T) {
		t.Setenv("PORTAL_TEST_BOOL", "true")
		assert.True(t, GetEnvBoolOrDefault("PORTAL_TEST_BOOL", false))
		t.Setenv("PORTAL_TEST_BOOL", "maybe")
		assert.False(t, GetEnvBoolOrDefault("PORTAL_TEST_BOOL", false))
	})

	t.Run("duration", func(t *testing.T) {
		t.Setenv("PORTAL_TEST_DURATION", "90m")
		assert.Equal(t, 90*time.Minute, GetEnvDurationOrDefault("PORTAL_TEST_DURATION", time.Hour))
		t.Setenv("PORTAL_TEST_DURATION", "soon")
		assert.Equal(t, time.Hour, GetEnvDurationOrDefault("PORTAL_TEST_DURATION", time.Hour))
	})
}
