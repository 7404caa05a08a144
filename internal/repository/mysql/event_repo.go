package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"UEvents/internal/model"
	"UEvents/internal/repository"
)

type EventRepository struct {
	DB *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{DB: db}
}

func (r *EventRepository) Transaction(ctx context.Context, fn func(tx repository.EventStore) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&EventRepository{DB: tx})
	})
}

type ownerRow struct {
	OwnerUserID string
}

// OwnerOf returns the user owning the club the event belongs to.
func (r *EventRepository) OwnerOf(ctx context.Context, eventID string) (string, error) {
	var row ownerRow
	err := r.DB.WithContext(ctx).Model(&model.Event{}).
		Select("clubs.owner_user_id").
		Joins("JOIN clubs ON clubs.id = events.club_id").
		Where("events.id = ?", eventID).
		Take(&row).Error
	return row.OwnerUserID, err
}

func (r *EventRepository) FindByID(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	err := r.DB.WithContext(ctx).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tag ASC") }).
		Preload("Translations", func(db *gorm.DB) *gorm.DB { return db.Order("lang ASC") }).
		Where("id = ?", id).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts the event together with its tags and translations.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	return r.DB.WithContext(ctx).Create(e).Error
}

func (r *EventRepository) Update(ctx context.Context, id string, fields map[string]any, tags []string) error {
	db := r.DB.WithContext(ctx)
	if len(fields) > 0 {
		if err := db.Model(&model.Event{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return err
		}
	}
	if tags == nil {
		return nil
	}
	if err := db.Where("event_id = ?", id).Delete(&model.EventTag{}).Error; err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}
	rows := make([]model.EventTag, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, model.EventTag{EventID: id, Tag: t})
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (r *EventRepository) SetStatus(ctx context.Context, id string, status model.EventStatus) error {
	return r.DB.WithContext(ctx).Model(&model.Event{}).Where("id = ?", id).Update("status", status).Error
}

// Delete cascades by hand; run it inside Transaction so readers never see a partial delete.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	db := r.DB.WithContext(ctx)
	for _, m := range []any{&model.SavedEvent{}, &model.EventRSVP{}, &model.EventTranslation{}, &model.EventTag{}} {
		if err := db.Where("event_id = ?", id).Delete(m).Error; err != nil {
			return err
		}
	}
	// zero rows affected is still success
	return db.Where("id = ?", id).Delete(&model.Event{}).Error
}

// UpsertTranslation creates or overwrites the (event_id, lang) row.
func (r *EventRepository) UpsertTranslation(ctx context.Context, tr *model.EventTranslation) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "lang"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "description", "poster_ref", "updated_at"}),
	}).Create(tr).Error
}

func (r *EventRepository) DeleteTranslation(ctx context.Context, eventID, lang string) error {
	return r.DB.WithContext(ctx).Where("event_id = ? AND lang = ?", eventID, lang).
		Delete(&model.EventTranslation{}).Error
}

func (r *EventRepository) List(ctx context.Context, f repository.EventFilter, offset, limit int) ([]model.Event, int64, error) {
	q := r.applyFilter(r.DB.WithContext(ctx).Model(&model.Event{}), f).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return nil, 0, nil
	}

	page := q.Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tag ASC") }).
		Preload("Translations", func(db *gorm.DB) *gorm.DB { return db.Order("lang ASC") }).
		Order("start_at ASC, id ASC")
	if offset > 0 {
		page = page.Offset(offset)
	}
	if limit > 0 {
		page = page.Limit(limit)
	}
	var list []model.Event
	if err := page.Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *EventRepository) applyFilter(q *gorm.DB, f repository.EventFilter) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.ClubID != "" {
		q = q.Where("club_id = ?", f.ClubID)
	}
	if f.StartFrom != nil {
		q = q.Where("start_at >= ?", f.StartFrom.UTC())
	}
	if f.StartBefore != nil {
		q = q.Where("start_at < ?", f.StartBefore.UTC())
	}
	if f.Tag != "" {
		q = q.Where("id IN (?)", r.DB.Model(&model.EventTag{}).Select("event_id").Where("tag = ?", f.Tag))
	}
	if f.RelatedKind != "" && f.RelatedUser != "" {
		if f.RelatedKind == model.RelationFollow {
			q = q.Where("club_id IN (?)", r.DB.Table(f.RelatedKind.Table()).Select("club_id").Where("user_id = ?", f.RelatedUser))
		} else {
			q = q.Where("id IN (?)", r.DB.Table(f.RelatedKind.Table()).Select("event_id").Where("user_id = ?", f.RelatedUser))
		}
	}
	return q
}

func (r *EventRepository) AppendOutbox(ctx context.Context, ob *model.Outbox) error {
	return r.DB.WithContext(ctx).Create(ob).Error
}
