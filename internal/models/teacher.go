package models

import "time"

// Teacher represents a registered instructor. NationalID is the business key.
type Teacher struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	NationalID string    `gorm:"size:32;uniqueIndex;not null" json:"national_id"`
	Salary     float64   `gorm:"not null;default:0" json:"salary"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
