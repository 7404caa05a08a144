package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleClub    Role = "club"
	RoleAdmin   Role = "admin"
)

type User struct {
	ID        string `gorm:"primaryKey;size:36"`
	Email     string `gorm:"uniqueIndex;size:128;not null"`
	Password  string `gorm:"size:255;not null"`
	FirstName string `gorm:"size:64;not null;default:''"`
	LastName  string `gorm:"size:64;not null;default:''"`
	Role      Role   `gorm:"size:16;not null;default:student"` // fixed at creation
	Locale    string `gorm:"size:8;not null;default:en"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
