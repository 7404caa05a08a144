// Package repository declares the persistence contracts the services depend on.
// internal/repository/mysql implements them with gorm; tests use in-memory fakes.
package repository

import (
	"context"
	"time"

	"UEvents/internal/model"
)

// EventFilter narrows an event listing. Zero values mean "no constraint".
type EventFilter struct {
	Status      model.EventStatus
	ClubID      string
	StartFrom   *time.Time // inclusive
	StartBefore *time.Time // exclusive
	Tag         string

	// RelatedKind with RelatedUser keeps only events the user follows (through the club),
	// saved or RSVP'd.
	RelatedKind model.RelationKind
	RelatedUser string
}

// Attendee is one row of a relation listed by target.
type Attendee struct {
	UserID    string    `json:"userId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, fields map[string]any) error
}

type ClubStore interface {
	FindByID(ctx context.Context, id string) (*model.Club, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*model.Club, error)
	FindBySlug(ctx context.Context, slug string) (*model.Club, error)
	FindByOwner(ctx context.Context, ownerID string) (*model.Club, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, c *model.Club) error
	Update(ctx context.Context, id string, fields map[string]any) error
	ListFollowedBy(ctx context.Context, userID string, offset, limit int) ([]model.Club, int64, error)
}

// EventStore methods return gorm.ErrRecordNotFound for missing rows.
type EventStore interface {
	// Transaction runs fn against a store bound to one database transaction.
	Transaction(ctx context.Context, fn func(tx EventStore) error) error

	OwnerOf(ctx context.Context, eventID string) (string, error)
	FindByID(ctx context.Context, id string) (*model.Event, error)
	Create(ctx context.Context, e *model.Event) error
	// Update applies fields; a non-nil tags replaces the tag set.
	Update(ctx context.Context, id string, fields map[string]any, tags []string) error
	SetStatus(ctx context.Context, id string, status model.EventStatus) error
	// Delete removes the event with its tags, translations, saves and RSVPs.
	Delete(ctx context.Context, id string) error
	UpsertTranslation(ctx context.Context, tr *model.EventTranslation) error
	DeleteTranslation(ctx context.Context, eventID, lang string) error
	// List orders by start_at then id. limit <= 0 returns every match.
	List(ctx context.Context, f EventFilter, offset, limit int) ([]model.Event, int64, error)
	AppendOutbox(ctx context.Context, ob *model.Outbox) error
}

type RelationStore interface {
	// Add reports whether a row was inserted; an existing pair is not an error.
	Add(ctx context.Context, kind model.RelationKind, userID, targetID string) (bool, error)
	// Remove reports whether a row was deleted; a missing pair is not an error.
	Remove(ctx context.Context, kind model.RelationKind, userID, targetID string) (bool, error)
	Exists(ctx context.Context, kind model.RelationKind, userID, targetID string) (bool, error)
	Count(ctx context.Context, kind model.RelationKind, targetID string) (int64, error)
	ListForTarget(ctx context.Context, kind model.RelationKind, targetID string, offset, limit int) ([]Attendee, int64, error)
}

type OutboxStore interface {
	Pending(ctx context.Context, batchSize, maxRetry int) ([]model.Outbox, error)
	MarkSent(ctx context.Context, id uint64) error
	MarkFailed(ctx context.Context, id uint64) error
}

// TokenStore keeps the single active access token per user.
type TokenStore interface {
	Save(ctx context.Context, userID, token string, ttl time.Duration) error
	Get(ctx context.Context, userID string) (string, error)
	Extend(ctx context.Context, userID string, ttl time.Duration) error
	Delete(ctx context.Context, userID string) error
}

// CountCache holds relation counts per target. A miss reports ok=false.
type CountCache interface {
	Get(ctx context.Context, kind model.RelationKind, targetID string) (n int64, ok bool, err error)
	Set(ctx context.Context, kind model.RelationKind, targetID string, n int64) error
	Invalidate(ctx context.Context, kind model.RelationKind, targetID string) error
}

// Locker is a best-effort distributed mutex.
type Locker interface {
	Acquire(ctx context.Context, key, token string) (bool, error)
	Release(ctx context.Context, key, token string) error
}
