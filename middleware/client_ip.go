package middleware

import (
	"net"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// ClientIP attaches the peer address to the request context with
// [goSession.WithClientIP], enabling per-IP login throttling and the audit IP
// field. Forwarding headers are not trusted; put a proxy-aware middleware in
// front when the service runs behind one.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ip = host
		}
		next.ServeHTTP(w, r.WithContext(goSession.WithClientIP(r.Context(), ip)))
	})
}
