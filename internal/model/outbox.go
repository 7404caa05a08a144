package model

import "time"

const (
	OutboxPending int8 = 0
	OutboxSent    int8 = 1
	OutboxFailed  int8 = 2
)

const (
	TopicEventPublished   = "event.published"
	TopicEventUnpublished = "event.unpublished"
	TopicEventDeleted     = "event.deleted"
)

// Outbox rows are written in the same transaction as the change they describe.
type Outbox struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	EventType   string `gorm:"size:32;not null"`
	AggregateID string `gorm:"size:36;not null;index"`
	Payload     string `gorm:"type:text;not null"`
	Status      int8   `gorm:"not null;default:0;index"`
	Retry       int    `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Outbox) TableName() string { return "outbox" }
