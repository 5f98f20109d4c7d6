// internal/models/contact.go
package models

type ContactMessage struct {
	BaseModel
	Name    string `json:"name" gorm:"size:255;not null"`
	Email   string `json:"email" gorm:"size:255;not null"`
	Subject string `json:"subject" gorm:"size:255"`
	Message string `json:"message" gorm:"type:text;not null"`
	Read    bool   `json:"read" gorm:"default:false;index"`
}
