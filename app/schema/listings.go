// Package schema exposes the listing lifecycle as a GraphQL schema.
//
//	query    { listings { id title price status } }
//	mutation { buyListing(id: 1) }
package schema

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/kleptokart/kleptokart/app/models"
	"github.com/kleptokart/kleptokart/app/services"
	gql "github.com/kleptokart/kleptokart/pkg/graphql"
)

var listingType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Listing",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"title":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"description": &graphql.Field{Type: graphql.String},
		"price":       &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"sellerName":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"sellerEmail": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"status":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"createdAt":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
	},
})

var idArgs = graphql.FieldConfigArgument{
	"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
}

// New builds the schema over svc.
func New(svc *services.ListingService) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"listings": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(listingType))),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					listings, err := svc.ListActive(p.Context)
					if err != nil {
						return nil, errors.New("Failed to fetch listings")
					}
					out := make([]map[string]any, 0, len(listings))
					for _, l := range listings {
						out = append(out, toMap(l))
					}
					return out, nil
				},
			},
			"listing": &graphql.Field{
				Type: listingType,
				Args: idArgs,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					l, err := svc.GetListing(p.Context, argID(p))
					if errors.Is(err, services.ErrNotFound) {
						return nil, nil
					}
					if err != nil {
						return nil, errors.New("Failed to fetch listings")
					}
					return toMap(l), nil
				},
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createListing": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Args: graphql.FieldConfigArgument{
					"title":       &graphql.ArgumentConfig{Type: graphql.String},
					"description": &graphql.ArgumentConfig{Type: graphql.String},
					"price":       &graphql.ArgumentConfig{Type: graphql.Float},
					"sellerName":  &graphql.ArgumentConfig{Type: graphql.String},
					"sellerEmail": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					in := services.CreateListingInput{
						Title:       stringArg(p, "title"),
						SellerName:  stringArg(p, "sellerName"),
						SellerEmail: stringArg(p, "sellerEmail"),
					}
					if d, ok := p.Args["description"].(string); ok {
						in.Description = &d
					}
					if price, ok := p.Args["price"].(float64); ok {
						in.Price = models.Price(price)
					}

					id, err := svc.CreateListing(p.Context, in)
					var verr *services.ValidationError
					switch {
					case err == nil:
						return int(id), nil
					case errors.As(err, &verr) && verr.MissingRequired():
						return nil, errors.New("Missing required fields")
					case errors.As(err, &verr):
						return nil, fmt.Errorf("Invalid field values: %s", strings.Join(verr.Fields.Fields(), ", "))
					default:
						return nil, errors.New("Failed to create listing")
					}
				},
			},
			"buyListing": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Args: idArgs,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					err := svc.Purchase(p.Context, argID(p))
					switch {
					case err == nil:
						return "Purchase successful", nil
					case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrConflict):
						return nil, errors.New("Listing not found or already sold")
					default:
						return nil, errors.New("Failed to complete purchase")
					}
				},
			},
			"deleteListing": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Args: idArgs,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					err := svc.DeleteListing(p.Context, argID(p))
					switch {
					case err == nil:
						return "Listing deleted successfully", nil
					case errors.Is(err, services.ErrNotFound):
						return nil, errors.New("Listing not found")
					default:
						return nil, errors.New("Failed to delete listing")
					}
				},
			},
		},
	})

	return gql.NewSchema(query, mutation)
}

func toMap(l models.Listing) map[string]any {
	m := map[string]any{
		"id":          int(l.ID),
		"title":       l.Title,
		"description": nil,
		"price":       float64(l.Price),
		"sellerName":  l.SellerName,
		"sellerEmail": l.SellerEmail,
		"status":      string(l.Status),
		"createdAt":   l.CreatedAt.UTC().Format(time.RFC3339),
	}
	if l.Description != nil {
		m["description"] = *l.Description
	}
	return m
}

// argID maps ids below 1 to 0, which no listing has.
func argID(p graphql.ResolveParams) uint64 {
	id, _ := p.Args["id"].(int)
	if id < 1 {
		return 0
	}
	return uint64(id)
}

func stringArg(p graphql.ResolveParams, name string) string {
	s, _ := p.Args[name].(string)
	return s
}
