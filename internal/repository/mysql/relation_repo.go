package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"UEvents/internal/model"
	"UEvents/internal/repository"
)

// RelationRepository serves follows, saved events and RSVPs. Every table has a
// (user_id, target) primary key, so a repeated add is absorbed by the conflict clause.
type RelationRepository struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewRelationRepository(db *gorm.DB) *RelationRepository {
	return &RelationRepository{DB: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *RelationRepository) Add(ctx context.Context, kind model.RelationKind, userID, targetID string) (bool, error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(kind.NewRow(userID, targetID, r.now()))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *RelationRepository) Remove(ctx context.Context, kind model.RelationKind, userID, targetID string) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND "+kind.TargetColumn()+" = ?", userID, targetID).
		Delete(kind.Model())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *RelationRepository) Exists(ctx context.Context, kind model.RelationKind, userID, targetID string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Table(kind.Table()).
		Where("user_id = ? AND "+kind.TargetColumn()+" = ?", userID, targetID).
		Count(&n).Error
	return n > 0, err
}

func (r *RelationRepository) Count(ctx context.Context, kind model.RelationKind, targetID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Table(kind.Table()).
		Where(kind.TargetColumn()+" = ?", targetID).
		Count(&n).Error
	return n, err
}

// ListForTarget lists who holds the relation, oldest first with user id as tie-break.
func (r *RelationRepository) ListForTarget(ctx context.Context, kind model.RelationKind, targetID string, offset, limit int) ([]repository.Attendee, int64, error) {
	total, err := r.Count(ctx, kind, targetID)
	if err != nil || total == 0 {
		return nil, total, err
	}
	var rows []repository.Attendee
	err = r.DB.WithContext(ctx).Table(kind.Table()+" AS rel").
		Select("rel.user_id, users.first_name, users.last_name, rel.created_at").
		Joins("LEFT JOIN users ON users.id = rel.user_id").
		Where("rel."+kind.TargetColumn()+" = ?", targetID).
		Order("rel.created_at ASC, rel.user_id ASC").
		Offset(offset).Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
