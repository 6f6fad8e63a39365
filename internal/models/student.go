package models

import "time"

// Student represents a registered learner. EnrollmentID is the business key.
type Student struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	NationalID   string    `gorm:"size:32;not null" json:"national_id"`
	EnrollmentID string    `gorm:"size:64;uniqueIndex;not null" json:"enrollment_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
