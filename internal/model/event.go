package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
)

func (s EventStatus) Valid() bool {
	return s == EventDraft || s == EventPublished
}

type Event struct {
	ID           string      `gorm:"primaryKey;size:36;index:idx_club_start,priority:3;index:idx_status_start,priority:3"`
	ClubID       string      `gorm:"size:36;not null;index:idx_club_start,priority:1"`
	CreatedBy    string      `gorm:"size:36;not null"`
	StartAt      time.Time   `gorm:"not null;index:idx_club_start,priority:2;index:idx_status_start,priority:2"`
	EndAt        *time.Time
	LocationName string      `gorm:"size:200;not null;default:''"`
	Status       EventStatus `gorm:"size:16;not null;default:draft;index:idx_status_start,priority:1"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Tags         []EventTag         `gorm:"foreignKey:EventID"`
	Translations []EventTranslation `gorm:"foreignKey:EventID"`
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// TagNames returns the tag set in stored order.
func (e *Event) TagNames() []string {
	out := make([]string, 0, len(e.Tags))
	for _, t := range e.Tags {
		out = append(out, t.Tag)
	}
	return out
}

// HasTranslation reports whether content exists for lang.
func (e *Event) HasTranslation(lang string) bool {
	for _, t := range e.Translations {
		if t.Lang == lang {
			return true
		}
	}
	return false
}

type EventTag struct {
	EventID string `gorm:"primaryKey;size:36"`
	Tag     string `gorm:"primaryKey;size:64;index"`
}

type EventTranslation struct {
	EventID     string  `gorm:"primaryKey;size:36"`
	Lang        string  `gorm:"primaryKey;size:8"`
	Title       string  `gorm:"size:200;not null"`
	Description string  `gorm:"type:text"`
	PosterRef   *string `gorm:"size:512"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
