// internal/services/notification_service.go
package services

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/carlane/carlane-backend/internal/models"
	"github.com/carlane/carlane-backend/internal/utils"
)

// NotificationService records admin dashboard notifications. Writers call it
// fire-and-forget; a failed notification never fails the triggering request.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) RecordBookingNotification(booking *models.Booking, car *models.Car) {
	notification := &models.AdminNotification{
		Type:       models.NotificationTypeBooking,
		Title:      "New booking request",
		Message:    fmt.Sprintf("%s requested %s %s from %s to %s", booking.CustomerName, car.Brand, car.Name, booking.StartDate.Format("2006-01-02"), booking.EndDate.Format("2006-01-02")),
		ResourceID: &booking.ID,
	}

	if err := s.db.Create(notification).Error; err != nil {
		logrus.WithError(err).Error("Failed to record booking notification")
	}
}

func (s *NotificationService) RecordContactNotification(message *models.ContactMessage) {
	notification := &models.AdminNotification{
		Type:       models.NotificationTypeContact,
		Title:      "New contact message",
		Message:    fmt.Sprintf("%s <%s>: %s", message.Name, message.Email, message.Subject),
		ResourceID: &message.ID,
	}

	if err := s.db.Create(notification).Error; err != nil {
		logrus.WithError(err).Error("Failed to record contact notification")
	}
}

func (s *NotificationService) ListNotifications(params utils.PaginationParams, unreadOnly bool) ([]models.AdminNotification, int64, error) {
	query := s.db.Model(&models.AdminNotification{})

	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, &RepositoryError{Op: "count notifications", Err: err}
	}

	allowedSortFields := []string{"created_at", "type"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var notifications []models.AdminNotification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, 0, &RepositoryError{Op: "fetch notifications", Err: err}
	}

	return notifications, total, nil
}
