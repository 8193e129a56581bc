// Package kernel assembles the HTTP handler: global middleware, the listing
// store and service, and the route table.
package kernel

import (
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/kleptokart/kleptokart/app/controllers"
	"github.com/kleptokart/kleptokart/app/repositories"
	"github.com/kleptokart/kleptokart/app/routes"
	"github.com/kleptokart/kleptokart/app/schema"
	"github.com/kleptokart/kleptokart/app/services"
	"github.com/kleptokart/kleptokart/pkg/cache"
	"github.com/kleptokart/kleptokart/pkg/ctx"
	"github.com/kleptokart/kleptokart/pkg/metrics"
	"github.com/kleptokart/kleptokart/pkg/middleware"
	"github.com/kleptokart/kleptokart/pkg/reqid"
	"github.com/kleptokart/kleptokart/pkg/response"
	"github.com/kleptokart/kleptokart/pkg/router"
)

// Deps are the process-wide resources the kernel is built on.
type Deps struct {
	DB             *gorm.DB      // required
	Counter        cache.Counter // rate-limit windows; nil means in-memory
	RateLimit      int           // requests per minute per IP; <= 0 disables
	CORSOrigins    []string
	TrustedProxies []string // CIDRs or addresses allowed to set X-Forwarded-For
}

// HTTPKernel owns the router and everything mounted on it.
type HTTPKernel struct {
	router *router.Router
}

// New wires the store, service and controllers onto a router.
func New(deps Deps) (*HTTPKernel, error) {
	if deps.Counter == nil {
		deps.Counter = cache.NewMemoryCounter()
	}

	proxies, err := ctx.ParseProxies(deps.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("kernel: trusted proxies: %w", err)
	}

	repo := repositories.NewListingRepository(deps.DB)
	svc := services.NewListingService(repo)

	gqlSchema, err := schema.New(svc)
	if err != nil {
		return nil, fmt.Errorf("kernel: graphql schema: %w", err)
	}

	r := router.New()

	// Global middleware stack (outermost → innermost):
	//  1. Prometheus metrics  total latency including everything below
	//  2. Recovery            panics become 500s
	//  3. Real IP             client address from trusted proxies only
	//  4. Request ID          before anything logs
	//  5. Logger              tags the request logger with request_id
	//  6. CORS                the browser client runs on another origin
	//  7. Rate limiter        reject abusers before touching the database
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(middleware.RealIP(proxies))
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(deps.CORSOrigins)))
	r.Use(middleware.RateLimit(deps.Counter, deps.RateLimit, time.Minute))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	routes.RegisterAPI(r, routes.Controllers{
		Listings: controllers.NewListingController(svc),
		Health:   controllers.NewHealthController(repo),
		GraphQL:  gqlSchema,
	})

	return &HTTPKernel{router: r}, nil
}

// Handler returns the root http.Handler.
func (k *HTTPKernel) Handler() http.Handler {
	return k.router.Handler()
}

// Routes lists every mounted route.
func (k *HTTPKernel) Routes() []router.RouteInfo {
	return k.router.Routes()
}
