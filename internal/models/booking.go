// internal/models/booking.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Booking struct {
	BaseModel
	CarID         uuid.UUID     `json:"car_id" gorm:"type:uuid;not null;index"`
	CustomerName  string        `json:"customer_name" gorm:"size:255;not null"`
	CustomerEmail string        `json:"customer_email" gorm:"size:255;not null;index"`
	CustomerPhone string        `json:"customer_phone" gorm:"size:50"`
	StartDate     time.Time     `json:"start_date" gorm:"not null"`
	EndDate       time.Time     `json:"end_date" gorm:"not null"`
	TotalPrice    int64         `json:"total_price" gorm:"not null"`
	Status        BookingStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	Notes         string        `json:"notes" gorm:"type:text"`

	Car Car `json:"car,omitempty" gorm:"foreignKey:CarID"`
}

// Active reports whether the booking still blocks deletion of its car.
func (b *Booking) Active(now time.Time) bool {
	if b.Status != BookingStatusPending && b.Status != BookingStatusConfirmed {
		return false
	}
	return b.EndDate.After(now)
}
