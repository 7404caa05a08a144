package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Club struct {
	ID          string  `gorm:"primaryKey;size:36"`
	Slug        string  `gorm:"uniqueIndex;size:96;not null"`
	Name        string  `gorm:"size:128;not null"`
	OwnerUserID string  `gorm:"uniqueIndex;size:36;not null"` // one club per owner
	Bio         *string `gorm:"type:text"`
	LogoRef     *string `gorm:"size:512"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c *Club) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
