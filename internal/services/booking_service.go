// internal/services/booking_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/carlane/carlane-backend/internal/models"
	"github.com/carlane/carlane-backend/internal/utils"
)

type BookingService struct {
	db            *gorm.DB
	notifications *NotificationService
}

type CreateBookingRequest struct {
	CarID         uuid.UUID `json:"car_id" validate:"required"`
	CustomerName  string    `json:"customer_name" validate:"required,max=255"`
	CustomerEmail string    `json:"customer_email" validate:"required,email"`
	CustomerPhone string    `json:"customer_phone" validate:"omitempty,max=50"`
	StartDate     time.Time `json:"start_date" validate:"required"`
	EndDate       time.Time `json:"end_date" validate:"required"`
	Notes         string    `json:"notes" validate:"omitempty,max=1000"`
}

func NewBookingService(db *gorm.DB, notifications *NotificationService) *BookingService {
	return &BookingService{
		db:            db,
		notifications: notifications,
	}
}

func (s *BookingService) CreateBooking(req *CreateBookingRequest) (*models.Booking, error) {
	fields := utils.GetValidationErrors(utils.ValidateStruct(req))
	if !req.StartDate.IsZero() && !req.EndDate.After(req.StartDate) {
		fields = append(fields, utils.ValidationError{
			Field:   "end_date",
			Tag:     "gtfield",
			Message: "end_date must be after start_date",
		})
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	var car models.Car
	if err := s.db.First(&car, "id = ?", req.CarID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, &RepositoryError{Op: "find car", Err: err}
	}

	if !car.Available {
		return nil, fmt.Errorf("%w: car is not available for booking", ErrConflict)
	}

	days := int64(req.EndDate.Sub(req.StartDate).Hours() / 24)
	if days < 1 {
		days = 1
	}

	booking := &models.Booking{
		CarID:         req.CarID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		TotalPrice:    car.Price * days,
		Status:        models.BookingStatusPending,
		Notes:         req.Notes,
	}

	if err := s.db.Create(booking).Error; err != nil {
		return nil, &RepositoryError{Op: "create booking", Err: err}
	}

	if s.notifications != nil {
		go s.notifications.RecordBookingNotification(booking, &car)
	}

	return booking, nil
}

func (s *BookingService) GetBooking(id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.Preload("Car").First(&booking, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, &RepositoryError{Op: "find booking", Err: err}
	}
	return &booking, nil
}

func (s *BookingService) ListBookings(params utils.PaginationParams, status *models.BookingStatus) ([]models.Booking, int64, error) {
	query := s.db.Model(&models.Booking{}).Preload("Car")

	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if params.Search != "" {
		searchTerm := "%" + params.Search + "%"
		query = query.Where("customer_name LIKE ? OR customer_email LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, &RepositoryError{Op: "count bookings", Err: err}
	}

	allowedSortFields := []string{"created_at", "start_date", "end_date", "status", "total_price"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var bookings []models.Booking
	if err := query.Find(&bookings).Error; err != nil {
		return nil, 0, &RepositoryError{Op: "fetch bookings", Err: err}
	}

	return bookings, total, nil
}

func (s *BookingService) UpdateBookingStatus(id uuid.UUID, status models.BookingStatus) (*models.Booking, error) {
	switch status {
	case models.BookingStatusPending, models.BookingStatusConfirmed,
		models.BookingStatusCancelled, models.BookingStatusCompleted:
	default:
		return nil, &ValidationError{Fields: []utils.ValidationError{{
			Field:   "status",
			Tag:     "oneof",
			Message: "status must be one of: pending confirmed cancelled completed",
		}}}
	}

	booking, err := s.GetBooking(id)
	if err != nil {
		return nil, err
	}

	booking.Status = status
	if err := s.db.Model(booking).Update("status", status).Error; err != nil {
		return nil, &RepositoryError{Op: "update booking", Err: err}
	}

	return booking, nil
}

func (s *BookingService) DeleteBooking(id uuid.UUID) error {
	result := s.db.Delete(&models.Booking{}, "id = ?", id)
	if result.Error != nil {
		return &RepositoryError{Op: "delete booking", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountActiveForCar reports the bookings that block deletion of a car:
// pending or confirmed with an end date in the future.
func (s *BookingService) CountActiveForCar(carID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.Booking{}).
		Where("car_id = ? AND status IN ? AND end_date > ?",
			carID,
			[]models.BookingStatus{models.BookingStatusPending, models.BookingStatusConfirmed},
			time.Now()).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count active bookings: %w", err)
	}
	return count, nil
}

// DeleteForCar removes every booking of a car; used by the opt-in cascade
// delete policy.
func (s *BookingService) DeleteForCar(carID uuid.UUID) error {
	if err := s.db.Delete(&models.Booking{}, "car_id = ?", carID).Error; err != nil {
		return fmt.Errorf("delete bookings for car: %w", err)
	}
	return nil
}
