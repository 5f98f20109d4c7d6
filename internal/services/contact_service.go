// internal/services/contact_service.go
package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/carlane/carlane-backend/internal/models"
	"github.com/carlane/carlane-backend/internal/utils"
)

type ContactService struct {
	db            *gorm.DB
	notifications *NotificationService
}

type CreateContactRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"omitempty,max=255"`
	Message string `json:"message" validate:"required,max=5000"`
}

func NewContactService(db *gorm.DB, notifications *NotificationService) *ContactService {
	return &ContactService{
		db:            db,
		notifications: notifications,
	}
}

func (s *ContactService) CreateMessage(req *CreateContactRequest) (*models.ContactMessage, error) {
	if fields := utils.GetValidationErrors(utils.ValidateStruct(req)); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	message := &models.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}

	if err := s.db.Create(message).Error; err != nil {
		return nil, &RepositoryError{Op: "create message", Err: err}
	}

	if s.notifications != nil {
		go s.notifications.RecordContactNotification(message)
	}

	return message, nil
}

func (s *ContactService) ListMessages(params utils.PaginationParams, unreadOnly bool) ([]models.ContactMessage, int64, error) {
	query := s.db.Model(&models.ContactMessage{})

	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	if params.Search != "" {
		searchTerm := "%" + params.Search + "%"
		query = query.Where("name LIKE ? OR email LIKE ? OR subject LIKE ?", searchTerm, searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, &RepositoryError{Op: "count messages", Err: err}
	}

	allowedSortFields := []string{"created_at", "name", "email"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var messages []models.ContactMessage
	if err := query.Find(&messages).Error; err != nil {
		return nil, 0, &RepositoryError{Op: "fetch messages", Err: err}
	}

	return messages, total, nil
}

func (s *ContactService) MarkRead(id uuid.UUID) (*models.ContactMessage, error) {
	var message models.ContactMessage
	if err := s.db.First(&message, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, &RepositoryError{Op: "find message", Err: err}
	}

	message.Read = true
	if err := s.db.Model(&message).Update("read", true).Error; err != nil {
		return nil, &RepositoryError{Op: "update message", Err: err}
	}

	return &message, nil
}

func (s *ContactService) DeleteMessage(id uuid.UUID) error {
	result := s.db.Delete(&models.ContactMessage{}, "id = ?", id)
	if result.Error != nil {
		return &RepositoryError{Op: "delete message", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
