package model

import "time"

// Follow, SavedEvent and EventRSVP carry no state beyond their presence.

type Follow struct {
	UserID    string `gorm:"primaryKey;size:36"`
	ClubID    string `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time
}

type SavedEvent struct {
	UserID    string `gorm:"primaryKey;size:36"`
	EventID   string `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time
}

type EventRSVP struct {
	UserID    string `gorm:"primaryKey;size:36"`
	EventID   string `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time
}

func (EventRSVP) TableName() string { return "event_rsvps" }

type RelationKind string

const (
	RelationFollow RelationKind = "follow"
	RelationSave   RelationKind = "save"
	RelationRSVP   RelationKind = "rsvp"
)

func (k RelationKind) Table() string {
	switch k {
	case RelationFollow:
		return "follows"
	case RelationSave:
		return "saved_events"
	case RelationRSVP:
		return "event_rsvps"
	}
	return ""
}

// TargetColumn is the column holding the club or event id.
func (k RelationKind) TargetColumn() string {
	if k == RelationFollow {
		return "club_id"
	}
	return "event_id"
}

// NewRow builds the row to insert for (userID, targetID).
func (k RelationKind) NewRow(userID, targetID string, at time.Time) any {
	switch k {
	case RelationFollow:
		return &Follow{UserID: userID, ClubID: targetID, CreatedAt: at}
	case RelationSave:
		return &SavedEvent{UserID: userID, EventID: targetID, CreatedAt: at}
	case RelationRSVP:
		return &EventRSVP{UserID: userID, EventID: targetID, CreatedAt: at}
	}
	return nil
}

// Model returns an empty row, used as the target of deletes.
func (k RelationKind) Model() any {
	return k.NewRow("", "", time.Time{})
}
