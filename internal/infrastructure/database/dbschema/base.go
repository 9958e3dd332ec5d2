// Package dbschema holds the GORM persistence entities and their
// conversions to and from domain types.
package dbschema

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel carries the columns shared by all soft-deletable tables.
type BaseModel struct {
	ID        uint           `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
