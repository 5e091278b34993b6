package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel audit timestamps embedded by every business model
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// UUIDModel string primary key generated on the application side, so the same
// tags work for PostgreSQL and SQLite.
type UUIDModel struct {
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`
}

// BeforeCreate assigns a UUID when the caller did not set one
func (m *UUIDModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
