package observability

import (
	"net"
	"net/http"
	"strings"
)

// IdentityFromRequest builds the event identity for an authenticated
// request: the session's user plus the device and client address headers
// set by the platform's edge.
func IdentityFromRequest(r *http.Request, userID int) Identity {
	return Identity{
		UserID:   userID,
		DeviceID: r.Header.Get("X-Device-Id"),
		IP:       clientIP(r),
	}
}

// RequestIDFromRequest returns the inbound correlation id, empty when the
// edge did not set one.
func RequestIDFromRequest(r *http.Request) string {
	return r.Header.Get("X-Request-Id")
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
