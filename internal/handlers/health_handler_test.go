package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHealth(h *HealthHandler) (*httptest.ResponseRecorder, map[string]interface{}) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", h.Health)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestHealth_Healthy(t *testing.T) {
	h := NewHealthHandler("1.2.3", func() int { return 4 })
	h.AddCheck("database", func(context.Context) error { return nil })

	w, body := serveHealth(h)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "1.2.3", body["version"])
	assert.Equal(t, float64(4), body["open_sessions"])
}

func TestHealth_UnhealthyDependency(t *testing.T) {
	h := NewHealthHandler("1.2.3", nil)
	h.AddCheck("redis", func(context.Context) error { return errors.New("connection refused") })

	w, body := serveHealth(h)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Contains(t, w.Body.String(), "connection refused")
	assert.NotContains(t, body, "open_sessions")
}
