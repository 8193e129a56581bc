package controllers

import (
	"errors"
	"net/http"

	"github.com/kleptokart/kleptokart/app/services"
	"github.com/kleptokart/kleptokart/pkg/ctx"
	"github.com/kleptokart/kleptokart/pkg/response"
)

// ListingController serves /api/listings. Error bodies keep the strings
// the web client already matches on.
type ListingController struct {
	service *services.ListingService
}

func NewListingController(service *services.ListingService) *ListingController {
	return &ListingController{service: service}
}

// Index handles GET /api/listings.
func (ctl *ListingController) Index(c *ctx.Context) {
	listings, err := ctl.service.ListActive(c.Context())
	if err != nil {
		c.Error(http.StatusInternalServerError, "Failed to fetch listings")
		return
	}
	c.Success(listings)
}

// Store handles POST /api/listings.
func (ctl *ListingController) Store(c *ctx.Context) {
	var in services.CreateListingInput
	if err := c.BindJSON(&in); err != nil {
		c.Logger().Info("create listing: bad body", "error", err)
		c.Error(http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := ctl.service.CreateListing(c.Context(), in)
	var verr *services.ValidationError
	switch {
	case err == nil:
		c.Created(createdBody{ID: id, Message: "Listing created successfully"})
	case errors.As(err, &verr) && verr.MissingRequired():
		c.Error(http.StatusBadRequest, "Missing required fields")
	case errors.As(err, &verr):
		response.Invalid(c.W, "Invalid field values", verr.Fields.Messages())
	default:
		c.Error(http.StatusInternalServerError, "Failed to create listing")
	}
}

type createdBody struct {
	ID      uint64 `json:"id"`
	Message string `json:"message"`
}

// Destroy handles DELETE /api/listings/{id}.
func (ctl *ListingController) Destroy(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		c.NotFound("Listing not found")
		return
	}

	err := ctl.service.DeleteListing(c.Context(), id)
	switch {
	case err == nil:
		c.Message(http.StatusOK, "Listing deleted successfully")
	case errors.Is(err, services.ErrNotFound):
		c.NotFound("Listing not found")
	default:
		c.Error(http.StatusInternalServerError, "Failed to delete listing")
	}
}

// Buy handles POST /api/listings/{id}/buy. A missing listing and one that
// is already sold get the same response.
func (ctl *ListingController) Buy(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		c.NotFound("Listing not found or already sold")
		return
	}

	err := ctl.service.Purchase(c.Context(), id)
	switch {
	case err == nil:
		c.Message(http.StatusOK, "Purchase successful")
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrConflict):
		c.NotFound("Listing not found or already sold")
	default:
		c.Error(http.StatusInternalServerError, "Failed to complete purchase")
	}
}
