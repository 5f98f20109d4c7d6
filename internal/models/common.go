// internal/models/common.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns an id unless the caller pre-allocated one. Listings
// pre-allocate so the slug disambiguator exists before the first save.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Enums
type UserType string

const (
	UserTypeAdmin UserType = "admin"
	UserTypeStaff UserType = "staff"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type CarType string

const (
	CarTypeSedan     CarType = "Sedan"
	CarTypeSUV       CarType = "SUV"
	CarTypeHatchback CarType = "Hatchback"
	CarTypeCoupe     CarType = "Coupe"
	CarTypeTruck     CarType = "Truck"
)

func (t CarType) Valid() bool {
	switch t {
	case CarTypeSedan, CarTypeSUV, CarTypeHatchback, CarTypeCoupe, CarTypeTruck:
		return true
	}
	return false
}

type FuelType string

const (
	FuelTypePetrol   FuelType = "Petrol"
	FuelTypeDiesel   FuelType = "Diesel"
	FuelTypeElectric FuelType = "Electric"
	FuelTypeHybrid   FuelType = "Hybrid"
)

type TransmissionType string

const (
	TransmissionAutomatic TransmissionType = "Automatic"
	TransmissionManual    TransmissionType = "Manual"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

type NotificationType string

const (
	NotificationTypeBooking NotificationType = "booking"
	NotificationTypeContact NotificationType = "contact"
)
