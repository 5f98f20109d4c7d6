// internal/handlers/booking.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carlane/carlane-backend/internal/models"
	"github.com/carlane/carlane-backend/internal/services"
	"github.com/carlane/carlane-backend/internal/utils"
)

type BookingHandler struct {
	bookingService *services.BookingService
}

func NewBookingHandler(bookingService *services.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// POST /bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req services.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	booking, err := h.bookingService.CreateBooking(&req)
	if err != nil {
		handleServiceError(c, "Car", err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": "Booking created",
		"booking": booking,
	})
}

// GET /bookings
func (h *BookingHandler) GetBookings(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	var status *models.BookingStatus
	if s := c.Query("status"); s != "" {
		bookingStatus := models.BookingStatus(s)
		status = &bookingStatus
	}

	bookings, total, err := h.bookingService.ListBookings(params, status)
	if err != nil {
		handleServiceError(c, "Booking", err)
		return
	}

	result := utils.CreatePaginationResult(bookings, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid booking ID", nil)
		return
	}

	booking, err := h.bookingService.GetBooking(id)
	if err != nil {
		handleServiceError(c, "Booking", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"booking": booking,
	})
}

// PUT /bookings/:id/status
func (h *BookingHandler) UpdateBookingStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid booking ID", nil)
		return
	}

	var req struct {
		Status models.BookingStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	booking, err := h.bookingService.UpdateBookingStatus(id, req.Status)
	if err != nil {
		handleServiceError(c, "Booking", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Booking status updated",
		"booking": booking,
	})
}

// DELETE /bookings/:id
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid booking ID", nil)
		return
	}

	if err := h.bookingService.DeleteBooking(id); err != nil {
		handleServiceError(c, "Booking", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Booking deleted",
	})
}
