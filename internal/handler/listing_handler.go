package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/izygear/service-reservation/internal/application"
	"github.com/izygear/service-reservation/internal/response"
)

// ListingHandler handles HTTP requests for gear listing operations. The
// category travels in the path so each request targets one category store.
type ListingHandler struct {
	service *application.ListingService
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(service *application.ListingService) *ListingHandler {
	return &ListingHandler{service: service}
}

// RegisterRoutes registers all gear listing routes on the given router group.
func (h *ListingHandler) RegisterRoutes(r *gin.RouterGroup) {
	gears := r.Group("/gears/:category")
	{
		gears.POST("/create", h.CreateListing)
		gears.GET("/:listingId", h.GetListing)
		gears.DELETE("/:listingId", h.DeleteListing)
	}
}

// CreateListing handles POST /gears/:category/create.
func (h *ListingHandler) CreateListing(c *gin.Context) {
	var req application.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateListing(c.Request.Context(), c.Param("category"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetListing handles GET /gears/:category/:listingId.
func (h *ListingHandler) GetListing(c *gin.Context) {
	result, err := h.service.GetListing(c.Request.Context(), c.Param("category"), c.Param("listingId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteListing handles DELETE /gears/:category/:listingId.
func (h *ListingHandler) DeleteListing(c *gin.Context) {
	if err := h.service.DeleteListing(c.Request.Context(), c.Param("category"), c.Param("listingId")); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "listing deleted"})
}
