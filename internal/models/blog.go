// internal/models/blog.go
package models

import (
	"time"

	"github.com/lib/pq"
)

type BlogPost struct {
	BaseModel
	Title       string         `json:"title" gorm:"size:255;not null"`
	Slug        string         `json:"slug" gorm:"size:255;uniqueIndex;not null"`
	Content     string         `json:"content" gorm:"type:text;not null"`
	Excerpt     string         `json:"excerpt" gorm:"size:500"`
	Author      string         `json:"author" gorm:"size:100;not null"`
	CoverImage  string         `json:"cover_image" gorm:"type:text"`
	CoverKey    string         `json:"-" gorm:"size:255"`
	Tags        pq.StringArray `json:"tags" gorm:"type:text[]"`
	Published   bool           `json:"published" gorm:"default:false;index"`
	PublishedAt *time.Time     `json:"published_at"`
}
