package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"discussion-service/internal/ws"
)

func TestDebugRoutesDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	RegisterDebugRoutes(engine, nil, ws.NewRegistry(), false)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest("GET", "/debug/ws-connections", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDebugWSConnectionsReportsRegistrySize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	RegisterDebugRoutes(engine, nil, ws.NewRegistry(), true)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest("GET", "/debug/ws-connections", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"active": 0}`, rec.Body.String())
}
