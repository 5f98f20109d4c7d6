// internal/handlers/admin.go
package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/carlane/carlane-backend/internal/models"
	"github.com/carlane/carlane-backend/internal/services"
	"github.com/carlane/carlane-backend/internal/utils"
)

type AdminHandler struct {
	db                  *gorm.DB
	notificationService *services.NotificationService
}

func NewAdminHandler(db *gorm.DB, notificationService *services.NotificationService) *AdminHandler {
	return &AdminHandler{
		db:                  db,
		notificationService: notificationService,
	}
}

// GET /admin/dashboard/stats
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	var (
		totalCars        int64
		availableCars    int64
		totalBookings    int64
		upcomingBookings int64
		totalPosts       int64
		unreadMessages   int64
	)

	h.db.Model(&models.Car{}).Count(&totalCars)
	h.db.Model(&models.Car{}).Where("available = ?", true).Count(&availableCars)
	h.db.Model(&models.Booking{}).Count(&totalBookings)
	h.db.Model(&models.Booking{}).
		Where("status IN ? AND start_date > ?",
			[]models.BookingStatus{models.BookingStatusPending, models.BookingStatusConfirmed},
			time.Now()).
		Count(&upcomingBookings)
	h.db.Model(&models.BlogPost{}).Count(&totalPosts)
	h.db.Model(&models.ContactMessage{}).Where("read = ?", false).Count(&unreadMessages)

	utils.SuccessResponse(c, gin.H{
		"stats": gin.H{
			"total_cars":        totalCars,
			"available_cars":    availableCars,
			"total_bookings":    totalBookings,
			"upcoming_bookings": upcomingBookings,
			"total_posts":       totalPosts,
			"unread_messages":   unreadMessages,
		},
	})
}

// GET /admin/notifications
func (h *AdminHandler) GetNotifications(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	unreadOnly, _ := strconv.ParseBool(c.DefaultQuery("unread", "false"))

	notifications, total, err := h.notificationService.ListNotifications(params, unreadOnly)
	if err != nil {
		handleServiceError(c, "Notification", err)
		return
	}

	result := utils.CreatePaginationResult(notifications, total, params)
	utils.PaginatedResponse(c, result)
}
