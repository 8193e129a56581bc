package middleware

import (
	"net"
	"net/http"

	"github.com/kleptokart/kleptokart/pkg/ctx"
)

// RealIP rewrites r.RemoteAddr to the originating client when the peer is
// one of trusted. Everything downstream (rate limiting, access logs) keys on
// RemoteAddr, so forwarding headers from untrusted peers have no effect.
// An empty trusted set makes this a no-op.
func RealIP(trusted ctx.Proxies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(trusted) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip := ctx.ForwardedIP(r, trusted); ip != ctx.ClientIP(r) {
				r.RemoteAddr = net.JoinHostPort(ip, "0")
			}
			next.ServeHTTP(w, r)
		})
	}
}
