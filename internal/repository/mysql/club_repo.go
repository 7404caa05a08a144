package mysql

import (
	"context"

	"gorm.io/gorm"

	"UEvents/internal/model"
)

type ClubRepository struct {
	DB *gorm.DB
}

func NewClubRepository(db *gorm.DB) *ClubRepository {
	return &ClubRepository{DB: db}
}

func (r *ClubRepository) Create(ctx context.Context, c *model.Club) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *ClubRepository) FindByID(ctx context.Context, id string) (*model.Club, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *ClubRepository) FindBySlug(ctx context.Context, slug string) (*model.Club, error) {
	return r.findOne(ctx, "slug = ?", slug)
}

func (r *ClubRepository) FindByOwner(ctx context.Context, ownerID string) (*model.Club, error) {
	return r.findOne(ctx, "owner_user_id = ?", ownerID)
}

func (r *ClubRepository) findOne(ctx context.Context, cond string, arg any) (*model.Club, error) {
	var club model.Club
	if err := r.DB.WithContext(ctx).Where(cond, arg).First(&club).Error; err != nil {
		return nil, err
	}
	return &club, nil
}

// FindByIDs loads clubs keyed by id; unknown ids are skipped.
func (r *ClubRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*model.Club, error) {
	out := make(map[string]*model.Club, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []model.Club
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	for i := range list {
		out[list[i].ID] = &list[i]
	}
	return out, nil
}

func (r *ClubRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Club{}).Where("slug = ?", slug).Count(&n).Error
	return n > 0, err
}

func (r *ClubRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Model(&model.Club{}).Where("id = ?", id).Updates(fields).Error
}

// ListFollowedBy returns the clubs userID follows, by name then id.
func (r *ClubRepository) ListFollowedBy(ctx context.Context, userID string, offset, limit int) ([]model.Club, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Club{}).
		Where("id IN (?)", r.DB.Model(&model.Follow{}).Select("club_id").Where("user_id = ?", userID)).
		Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Club
	if err := q.Order("name ASC, id ASC").Offset(offset).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
