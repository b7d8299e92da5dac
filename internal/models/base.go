package models

import (
	"time"

	"gorm.io/gorm"
)

// Base holds the columns shared by every table. DeletedAt enables GORM
// soft deletes.
type Base struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}
