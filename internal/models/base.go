package models

import (
	"time"

	"gorm.io/gorm"
)

// Base contains common columns for all tables. IDs are auto-incrementing
// integers; "most recent" semantics throughout the engine rely on insertion
// order of these IDs.
type Base struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}
