// internal/models/car.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// CarSpecs is embedded into Car but rendered as a nested "specs" object in
// API responses.
type CarSpecs struct {
	Seats        int              `json:"seats" gorm:"column:seats"`
	Fuel         FuelType         `json:"fuel" gorm:"column:fuel;type:varchar(20)"`
	Transmission TransmissionType `json:"transmission" gorm:"column:transmission;type:varchar(20)"`
}

type Car struct {
	BaseModel
	Name        string   `json:"name" gorm:"size:255;not null"`
	Brand       string   `json:"brand" gorm:"size:100;not null;index"`
	Type        CarType  `json:"type" gorm:"type:varchar(20);not null;index"`
	Price       int64    `json:"price" gorm:"not null"`
	Description string   `json:"description" gorm:"type:text"`
	Specs       CarSpecs `json:"specs" gorm:"embedded"`
	Rating      float64  `json:"rating" gorm:"type:decimal(3,2);default:0"`
	ReviewCount int64    `json:"review_count" gorm:"default:0"`
	Available   bool     `json:"available" gorm:"default:true;index"`
	Featured    bool     `json:"featured" gorm:"default:false;index"`

	// Slug is unique across all listings; the uniqueness is enforced by the
	// database index, not by a check-then-write query.
	Slug string `json:"slug" gorm:"size:255;uniqueIndex;not null"`

	// Thumbnail mirrors the primary image URL and is recomputed whenever the
	// image set changes.
	Thumbnail string `json:"thumbnail" gorm:"type:text"`

	Images []CarImage `json:"images" gorm:"foreignKey:CarID;constraint:OnDelete:CASCADE"`
}

// CarImage is owned entirely by its parent Car; it has no identity outside
// the listing's image set.
type CarImage struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	CarID      uuid.UUID `json:"car_id" gorm:"type:uuid;index"`
	URL        string    `json:"url" gorm:"type:text;not null"`
	StoredName string    `json:"stored_name" gorm:"size:255;not null"`
	Filename   string    `json:"filename" gorm:"size:255"`
	AltText    string    `json:"alt_text" gorm:"size:255"`
	IsPrimary  bool      `json:"is_primary" gorm:"default:false"`
	SortOrder  int       `json:"sort_order" gorm:"not null;default:0;index"`
	SizeBytes  int64     `json:"size_bytes"`
	MimeType   string    `json:"mime_type" gorm:"size:100"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PrimaryImage returns the image flagged as primary, or nil when the set is
// empty. A persisted car always has exactly one primary image.
func (c *Car) PrimaryImage() *CarImage {
	for i := range c.Images {
		if c.Images[i].IsPrimary {
			return &c.Images[i]
		}
	}
	return nil
}
