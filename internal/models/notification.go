// internal/models/notification.go
package models

import "github.com/google/uuid"

// AdminNotification is a fire-and-forget record surfaced on the admin
// dashboard when customer-facing events happen (new booking, new contact
// message). Writers never fail the triggering request on a notification
// error.
type AdminNotification struct {
	BaseModel
	Type       NotificationType `json:"type" gorm:"type:varchar(20);not null;index"`
	Title      string           `json:"title" gorm:"size:255;not null"`
	Message    string           `json:"message" gorm:"type:text"`
	ResourceID *uuid.UUID       `json:"resource_id" gorm:"type:uuid"`
	Read       bool             `json:"read" gorm:"default:false;index"`
}
