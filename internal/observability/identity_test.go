package observability

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentityFromRequestUsesEdgeHeaders(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("X-Device-Id", "device-42")
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	identity := IdentityFromRequest(req, 7)

	require.Equal(t, 7, identity.UserID)
	require.Equal(t, "device-42", identity.DeviceID)
	require.Equal(t, "203.0.113.9", identity.IP)
}

func TestIdentityFromRequestFallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws", nil)
	req.RemoteAddr = "192.0.2.5:51234"

	identity := IdentityFromRequest(req, 1)

	require.Equal(t, "192.0.2.5", identity.IP)
	require.Empty(t, identity.DeviceID)
}

func TestRequestIDFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/groups", nil)
	require.Empty(t, RequestIDFromRequest(req))

	req.Header.Set("X-Request-Id", "req-1")
	require.Equal(t, "req-1", RequestIDFromRequest(req))
}
