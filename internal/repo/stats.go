// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (weak ETags) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/domain"
)

// latestUpdate counts the rows of q and returns the greatest updated_at, or
// nil when q matches nothing.
func latestUpdate(q *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	if err = q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Ordered fetch rather than MAX(): SQLite returns MAX() of a datetime as TEXT.
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Session(&gorm.Session{}).Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// ContactsStats returns the number of contact rows visible to uid and their
// latest update time.
func ContactsStats(ctx context.Context, db *gorm.DB, uid uint) (int64, *time.Time, error) {
	q := db.WithContext(ctx).Model(&domain.Contact{}).
		Where("(user_id = ? OR contact_id = ?)", uid, uid).
		Where("(status <> ? OR blocked_by = ?)", domain.ContactBlocked, uid)
	return latestUpdate(q)
}

// WishesStats returns the number of wishes owned by owner and their latest
// update time.
func WishesStats(ctx context.Context, db *gorm.DB, owner uint) (int64, *time.Time, error) {
	q := db.WithContext(ctx).Model(&domain.Wish{}).Where("user_id = ?", owner)
	return latestUpdate(q)
}
