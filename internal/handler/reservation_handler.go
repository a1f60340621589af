package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/izygear/service-reservation/internal/application"
	"github.com/izygear/service-reservation/internal/response"
)

// ReservationHandler handles HTTP requests for reservation operations.
type ReservationHandler struct {
	service *application.ReservationService
}

// NewReservationHandler creates a new ReservationHandler.
func NewReservationHandler(service *application.ReservationService) *ReservationHandler {
	return &ReservationHandler{service: service}
}

// RegisterRoutes registers all reservation routes on the given router group.
func (h *ReservationHandler) RegisterRoutes(r *gin.RouterGroup) {
	reservations := r.Group("/reservations")
	{
		reservations.POST("/create", h.CreateReservation)
		reservations.GET("/:userId/reservations", h.ListCustomerReservations)
		reservations.POST("/chatId", h.SetChatID)
	}
}

// CreateReservation handles POST /reservations/create.
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var req application.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateReservation(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListCustomerReservations handles GET /reservations/:userId/reservations.
func (h *ReservationHandler) ListCustomerReservations(c *gin.Context) {
	userID := c.Param("userId")

	result, err := h.service.ListCustomerReservations(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// SetChatIDRequest is the payload for attaching a chat thread to a reservation.
type SetChatIDRequest struct {
	ReservationID string `json:"reservationId" binding:"required"`
	ChatID        string `json:"firebaseChatId" binding:"required"`
}

// SetChatID handles POST /reservations/chatId.
func (h *ReservationHandler) SetChatID(c *gin.Context) {
	var req SetChatIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.SetChatID(c.Request.Context(), req.ReservationID, req.ChatID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
