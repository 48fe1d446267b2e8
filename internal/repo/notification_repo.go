// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Notification model. Every query is scoped to the recipient.
package repo

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/domain"
)

// CreateNotification inserts n.
func CreateNotification(ctx context.Context, db *gorm.DB, n *domain.Notification) error {
	return db.WithContext(ctx).Create(n).Error
}

func notificationScope(db *gorm.DB, uid uint, unreadOnly bool) *gorm.DB {
	q := db.Model(&domain.Notification{}).Where("user_id = ?", uid)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	return q
}

// CountNotifications returns the recipient's notification count.
func CountNotifications(ctx context.Context, db *gorm.DB, uid uint, unreadOnly bool) (int64, error) {
	var n int64
	err := notificationScope(db.WithContext(ctx), uid, unreadOnly).Count(&n).Error
	return n, err
}

// ListNotificationsPage returns a page of the recipient's notifications,
// newest first.
func ListNotificationsPage(ctx context.Context, db *gorm.DB, uid uint, unreadOnly bool, offset, limit int) ([]domain.Notification, error) {
	var out []domain.Notification
	err := notificationScope(db.WithContext(ctx), uid, unreadOnly).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetNotification fetches notification id owned by uid.
func GetNotification(ctx context.Context, db *gorm.DB, id, uid uint) (*domain.Notification, error) {
	var n domain.Notification
	err := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, uid).First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkNotificationRead flags notification id as read. ErrNotFound when uid is
// not the recipient.
func MarkNotificationRead(ctx context.Context, db *gorm.DB, id, uid uint) error {
	res := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ? AND user_id = ?", id, uid).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllNotificationsRead flags every unread notification of uid as read.
func MarkAllNotificationsRead(ctx context.Context, db *gorm.DB, uid uint) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ?", uid, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// DeleteNotification removes notification id owned by uid.
func DeleteNotification(ctx context.Context, db *gorm.DB, id, uid uint) error {
	res := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, uid).Delete(&domain.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteNotificationsOf removes every notification addressed to uid.
func DeleteNotificationsOf(ctx context.Context, db *gorm.DB, uid uint) (int64, error) {
	res := db.WithContext(ctx).Where("user_id = ?", uid).Delete(&domain.Notification{})
	return res.RowsAffected, res.Error
}

// HasTaggedNotification reports whether uid already received a notification
// of type typ about related whose metadata carries key=value.
func HasTaggedNotification(ctx context.Context, db *gorm.DB, uid uint, typ domain.NotificationType, related uint, key string, value any) (bool, error) {
	k, err := json.Marshal(key)
	if err != nil {
		return false, err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	// Metadata is written by encoding/json, so the pair appears verbatim.
	fragment := "%" + escapeLike(string(k)+":"+string(v)) + "%"
	var n int64
	err = db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND type = ? AND related_user_id = ?", uid, typ, related).
		Where("metadata LIKE ? ESCAPE '\\'", fragment).
		Count(&n).Error
	return n > 0, err
}
