package middleware

import (
	"net/http"
	"strings"
)

const maxClientIDLen = 128

// ClientKey identifies the submitter of a request: the X-Client-ID header
// when present, otherwise the client IP.
func ClientKey(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Client-ID")); id != "" {
		if len(id) > maxClientIDLen {
			id = id[:maxClientIDLen]
		}
		return "client:" + id
	}
	return "ip:" + clientIPForRateLimit(r)
}
