// Package ctx provides a request context for handlers.
//
// Instead of accepting (http.ResponseWriter, *http.Request), a handler
// receives a single *Context:
//
//	func (ctl *ListingController) Buy(c *ctx.Context) {
//	    id, ok := c.ParamID("id")
//	    ...
//	    c.Message(http.StatusOK, "Purchase successful")
//	}
//
//	api.Post("/listings/{id}/buy", "listings.buy", ctx.Wrap(ctl.Buy))
package ctx

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/kleptokart/kleptokart/pkg/bind"
	"github.com/kleptokart/kleptokart/pkg/logger"
	"github.com/kleptokart/kleptokart/pkg/response"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Context wraps a request/response pair.
type Context struct {
	W http.ResponseWriter
	R *http.Request
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter ("/listings/{id}" → c.Param("id")).
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// ParamID parses a positive integer path parameter. ok is false for
// anything else, including "0", "-1" and "abc".
func (c *Context) ParamID(key string) (id uint64, ok bool) {
	id, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// ClientIP returns the RemoteAddr host. Forwarding headers are honoured
// only through middleware.RealIP, which rewrites RemoteAddr when the peer
// is a trusted proxy.
func (c *Context) ClientIP() string {
	return ClientIP(c.R)
}

// ClientIP is the request-level form of Context.ClientIP.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Proxies is a set of networks whose forwarding headers are believed.
type Proxies []*net.IPNet

// ParseProxies accepts CIDRs ("10.0.0.0/8") and bare addresses ("10.0.0.1").
func ParseProxies(entries []string) (Proxies, error) {
	out := make(Proxies, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.Contains(e, "/") {
			ip := net.ParseIP(e)
			if ip == nil {
				return nil, fmt.Errorf("ctx: invalid proxy address %q", e)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(e)
		if err != nil {
			return nil, fmt.Errorf("ctx: invalid proxy network %q: %w", e, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// Contains reports whether ip falls inside any trusted network.
func (p Proxies) Contains(ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, n := range p {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ForwardedIP resolves the originating client address. The peer is
// returned as-is unless it is trusted; then X-Forwarded-For is walked from
// the right and the first hop that is not itself a trusted proxy wins.
// X-Real-Ip is consulted only when every forwarded hop is trusted.
func ForwardedIP(r *http.Request, trusted Proxies) string {
	addr := ClientIP(r)
	if !trusted.Contains(net.ParseIP(addr)) {
		return addr
	}

	var hops []string
	for _, h := range r.Header.Values("X-Forwarded-For") {
		hops = append(hops, strings.Split(h, ",")...)
	}
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		ip := net.ParseIP(hop)
		if ip == nil {
			return addr
		}
		if !trusted.Contains(ip) {
			return ip.String()
		}
		addr = ip.String()
	}

	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-Ip"))); ip != nil {
		return ip.String()
	}
	return addr
}

// Context returns the underlying request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// Logger returns the request-scoped logger.
func (c *Context) Logger() *slog.Logger { return logger.WithCtx(c.R.Context()) }

// BindJSON decodes the body into dest without writing a response.
func (c *Context) BindJSON(dest any) error {
	return bind.JSON(c.R, dest)
}

// ─── Response helpers ─────────────────────────────────────────────────────────

// JSON writes v with the given status code.
func (c *Context) JSON(code int, v any) {
	response.JSON(c.W, code, v)
}

// Success sends a 200 with data as the whole body.
func (c *Context) Success(data any) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 with data as the whole body.
func (c *Context) Created(data any) {
	c.JSON(http.StatusCreated, data)
}

// Message sends {"message": msg}.
func (c *Context) Message(code int, msg string) {
	c.JSON(code, response.MessageBody{Message: msg})
}

// Error sends {"error": msg}.
func (c *Context) Error(code int, msg string) {
	c.JSON(code, response.ErrorBody{Error: msg})
}

// NotFound sends a 404 {"error": msg}.
func (c *Context) NotFound(msg string) {
	c.Error(http.StatusNotFound, msg)
}

