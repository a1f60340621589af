package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/izygear/service-reservation/internal/application"
	"github.com/izygear/service-reservation/internal/response"
)

// ReviewHandler handles HTTP requests for review operations.
type ReviewHandler struct {
	service *application.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(service *application.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// RegisterRoutes registers all review routes on the given router group.
func (h *ReviewHandler) RegisterRoutes(r *gin.RouterGroup) {
	reviews := r.Group("/reviews")
	{
		reviews.POST("/create", h.CreateReview)
	}
}

// CreateReview handles POST /reviews/create.
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req application.AttachReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.AttachReview(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}
