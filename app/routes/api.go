package routes

import (
	"github.com/graphql-go/graphql"

	"github.com/kleptokart/kleptokart/app/controllers"
	"github.com/kleptokart/kleptokart/pkg/ctx"
	gql "github.com/kleptokart/kleptokart/pkg/graphql"
	"github.com/kleptokart/kleptokart/pkg/metrics"
	"github.com/kleptokart/kleptokart/pkg/router"
)

// Controllers groups everything the route table dispatches to.
type Controllers struct {
	Listings *controllers.ListingController
	Health   *controllers.HealthController
	GraphQL  graphql.Schema
}

// RegisterAPI mounts the REST, GraphQL and operational endpoints.
func RegisterAPI(r *router.Router, c Controllers) {
	r.Get("/health", "health", ctx.Wrap(c.Health.Health))
	r.Get("/ready", "ready", ctx.Wrap(c.Health.Ready))
	r.Get("/metrics", "metrics", metrics.Handler())

	api := r.Group("/api")
	api.Get("/listings", "listings.index", ctx.Wrap(c.Listings.Index))
	api.Post("/listings", "listings.store", ctx.Wrap(c.Listings.Store))
	api.Delete("/listings/{id}", "listings.destroy", ctx.Wrap(c.Listings.Destroy))
	api.Post("/listings/{id}/buy", "listings.buy", ctx.Wrap(c.Listings.Buy))

	r.Post("/graphql", "graphql", gql.Handler(c.GraphQL))
}
