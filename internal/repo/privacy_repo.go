package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/domain"
)

// GetOrCreatePrivacy returns uid's settings, inserting the defaults on first
// access. A concurrent first access that loses the insert re-reads the row.
func GetOrCreatePrivacy(ctx context.Context, db *gorm.DB, uid uint) (*domain.PrivacySettings, error) {
	var p domain.PrivacySettings
	err := db.WithContext(ctx).Where("user_id = ?", uid).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	p = domain.DefaultPrivacy(uid)
	if err := db.WithContext(ctx).Create(&p).Error; err != nil {
		if !IsDuplicate(err) {
			return nil, err
		}
		if err := db.WithContext(ctx).Where("user_id = ?", uid).First(&p).Error; err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// GetPrivacyFor loads settings for several users. Users without a row get
// the defaults.
func GetPrivacyFor(ctx context.Context, db *gorm.DB, ids []uint) (map[uint]domain.PrivacySettings, error) {
	out := make(map[uint]domain.PrivacySettings, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.PrivacySettings
	if err := db.WithContext(ctx).Where("user_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.UserID] = p
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			out[id] = domain.DefaultPrivacy(id)
		}
	}
	return out, nil
}

// SavePrivacy writes every column of p.
func SavePrivacy(ctx context.Context, db *gorm.DB, p *domain.PrivacySettings) error {
	return db.WithContext(ctx).Save(p).Error
}

// DeletePrivacy removes uid's settings row if any.
func DeletePrivacy(ctx context.Context, db *gorm.DB, uid uint) error {
	return db.WithContext(ctx).Where("user_id = ?", uid).Delete(&domain.PrivacySettings{}).Error
}
