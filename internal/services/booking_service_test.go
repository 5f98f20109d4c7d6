// internal/services/booking_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/carlane/carlane-backend/internal/models"
	"github.com/carlane/carlane-backend/internal/utils"
)

type BookingServiceTestSuite struct {
	suite.Suite
	db  *gorm.DB
	svc *BookingService
	car *models.Car
}

func (s *BookingServiceTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)

	sqlDB, err := db.DB()
	require.NoError(s.T(), err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(s.T(), db.AutoMigrate(
		&models.Car{},
		&models.CarImage{},
		&models.Booking{},
		&models.AdminNotification{},
	))

	s.db = db
	s.svc = NewBookingService(db, nil)

	s.car = &models.Car{
		Name:        "X5",
		Brand:       "BMW",
		Type:        models.CarTypeSUV,
		Price:       250,
		Description: "Spacious family SUV",
		Specs: models.CarSpecs{
			Seats:        5,
			Fuel:         models.FuelTypePetrol,
			Transmission: models.TransmissionAutomatic,
		},
		Available: true,
		Slug:      "bmw-x5-" + uuid.NewString()[:8],
	}
	require.NoError(s.T(), db.Create(s.car).Error)
}

func (s *BookingServiceTestSuite) validRequest() *CreateBookingRequest {
	return &CreateBookingRequest{
		CarID:         s.car.ID,
		CustomerName:  "Jamie Doe",
		CustomerEmail: "jamie@example.com",
		StartDate:     time.Now().Add(24 * time.Hour),
		EndDate:       time.Now().Add(4 * 24 * time.Hour),
	}
}

func (s *BookingServiceTestSuite) TestCreateBooking() {
	booking, err := s.svc.CreateBooking(s.validRequest())
	require.NoError(s.T(), err)

	assert.Equal(s.T(), models.BookingStatusPending, booking.Status)
	assert.Equal(s.T(), s.car.ID, booking.CarID)
	// Three full days at the daily price.
	assert.Equal(s.T(), int64(750), booking.TotalPrice)
	assert.NotEqual(s.T(), uuid.Nil, booking.ID)
}

func (s *BookingServiceTestSuite) TestCreateBookingEndBeforeStart() {
	req := s.validRequest()
	req.StartDate, req.EndDate = req.EndDate, req.StartDate

	_, err := s.svc.CreateBooking(req)

	var validationErr *ValidationError
	require.ErrorAs(s.T(), err, &validationErr)
	assert.Equal(s.T(), "end_date", validationErr.Fields[0].Field)
}

func (s *BookingServiceTestSuite) TestCreateBookingInvalidEmail() {
	req := s.validRequest()
	req.CustomerEmail = "not-an-email"

	_, err := s.svc.CreateBooking(req)

	var validationErr *ValidationError
	assert.ErrorAs(s.T(), err, &validationErr)
}

func (s *BookingServiceTestSuite) TestCreateBookingUnknownCar() {
	req := s.validRequest()
	req.CarID = uuid.New()

	_, err := s.svc.CreateBooking(req)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *BookingServiceTestSuite) TestCreateBookingUnavailableCar() {
	require.NoError(s.T(), s.db.Model(s.car).Update("available", false).Error)

	_, err := s.svc.CreateBooking(s.validRequest())
	assert.ErrorIs(s.T(), err, ErrConflict)
}

func (s *BookingServiceTestSuite) TestUpdateBookingStatus() {
	booking, err := s.svc.CreateBooking(s.validRequest())
	require.NoError(s.T(), err)

	updated, err := s.svc.UpdateBookingStatus(booking.ID, models.BookingStatusConfirmed)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.BookingStatusConfirmed, updated.Status)

	_, err = s.svc.UpdateBookingStatus(booking.ID, models.BookingStatus("shipped"))
	var validationErr *ValidationError
	assert.ErrorAs(s.T(), err, &validationErr)
}

func (s *BookingServiceTestSuite) TestListBookingsFilteredByStatus() {
	first, err := s.svc.CreateBooking(s.validRequest())
	require.NoError(s.T(), err)
	_, err = s.svc.CreateBooking(s.validRequest())
	require.NoError(s.T(), err)

	_, err = s.svc.UpdateBookingStatus(first.ID, models.BookingStatusCancelled)
	require.NoError(s.T(), err)

	status := models.BookingStatusPending
	bookings, total, err := s.svc.ListBookings(utils.PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"}, &status)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), int64(1), total)
	require.Len(s.T(), bookings, 1)
	assert.Equal(s.T(), models.BookingStatusPending, bookings[0].Status)
}

func (s *BookingServiceTestSuite) TestCountActiveForCar() {
	_, err := s.svc.CreateBooking(s.validRequest())
	require.NoError(s.T(), err)

	booking, err := s.svc.CreateBooking(s.validRequest())
	require.NoError(s.T(), err)
	_, err = s.svc.UpdateBookingStatus(booking.ID, models.BookingStatusCancelled)
	require.NoError(s.T(), err)

	active, err := s.svc.CountActiveForCar(s.car.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), active)
}

func (s *BookingServiceTestSuite) TestDeleteForCar() {
	_, err := s.svc.CreateBooking(s.validRequest())
	require.NoError(s.T(), err)
	_, err = s.svc.CreateBooking(s.validRequest())
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.svc.DeleteForCar(s.car.ID))

	active, err := s.svc.CountActiveForCar(s.car.ID)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), active)
}

func (s *BookingServiceTestSuite) TestDeleteBookingNotFound() {
	err := s.svc.DeleteBooking(uuid.New())
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func TestBookingServiceSuite(t *testing.T) {
	suite.Run(t, new(BookingServiceTestSuite))
}
