package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/izygear/service-reservation/internal/application"
	"github.com/izygear/service-reservation/internal/response"
)

// AdminReservationHandler handles admin HTTP requests for reservation
// management.
type AdminReservationHandler struct {
	service *application.ReservationService
}

// NewAdminReservationHandler creates a new AdminReservationHandler.
func NewAdminReservationHandler(service *application.ReservationService) *AdminReservationHandler {
	return &AdminReservationHandler{service: service}
}

// RegisterRoutes registers admin reservation routes.
func (h *AdminReservationHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/api/v1/admin")
	{
		admin.GET("/reservations", h.ListReservations)
		admin.GET("/stats/reservations", h.ReservationStats)
	}
}

// ListReservations handles GET /api/v1/admin/reservations.
func (h *AdminReservationHandler) ListReservations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	reservations, total, err := h.service.ListAllReservations(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, reservations, total, page, limit)
}

// ReservationStats handles GET /api/v1/admin/stats/reservations.
func (h *AdminReservationHandler) ReservationStats(c *gin.Context) {
	stats, err := h.service.GetReservationStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
