// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Wish model,
// including the conditional updates that make reservations race free.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/domain"
)

// clearReservation returns the assignments that reset a reservation.
func clearReservation() map[string]any {
	return map[string]any{
		"is_reserved": false,
		"reserved_by": nil,
		"reserved_at": nil,
	}
}

// CreateWish inserts w.
func CreateWish(ctx context.Context, db *gorm.DB, w *domain.Wish) error {
	return db.WithContext(ctx).Create(w).Error
}

// GetWish fetches a wish by id regardless of owner.
func GetWish(ctx context.Context, db *gorm.DB, id uint) (*domain.Wish, error) {
	var w domain.Wish
	if err := db.WithContext(ctx).First(&w, id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// GetOwnedWish fetches wish id only if it belongs to owner.
func GetOwnedWish(ctx context.Context, db *gorm.DB, id, owner uint) (*domain.Wish, error) {
	var w domain.Wish
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, owner).
		First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ListWishes returns owner's wishes ordered by position.
func ListWishes(ctx context.Context, db *gorm.DB, owner uint) ([]domain.Wish, error) {
	var out []domain.Wish
	err := db.WithContext(ctx).
		Where("user_id = ?", owner).
		Order("position ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CountWishes returns the number of wishes owned by owner.
func CountWishes(ctx context.Context, db *gorm.DB, owner uint) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Wish{}).Where("user_id = ?", owner).Count(&n).Error
	return n, err
}

// SaveWish writes every column of w.
func SaveWish(ctx context.Context, db *gorm.DB, w *domain.Wish) error {
	return db.WithContext(ctx).Save(w).Error
}

// SetWishPosition moves wish id to pos.
func SetWishPosition(ctx context.Context, db *gorm.DB, id uint, pos int) error {
	return db.WithContext(ctx).Model(&domain.Wish{}).Where("id = ?", id).Update("position", pos).Error
}

// DeleteWish removes wish id.
func DeleteWish(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.Wish{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompactWishPositions renumbers owner's wishes 1..n keeping their order.
func CompactWishPositions(ctx context.Context, db *gorm.DB, owner uint) error {
	wishes, err := ListWishes(ctx, db, owner)
	if err != nil {
		return err
	}
	for i, w := range wishes {
		if w.Position == i+1 {
			continue
		}
		if err := SetWishPosition(ctx, db, w.ID, i+1); err != nil {
			return err
		}
	}
	return nil
}

// ReserveWish marks wish id as reserved by reserver only if it is currently
// free. It reports whether this call won the reservation.
func ReserveWish(ctx context.Context, db *gorm.DB, id, reserver uint, at time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Wish{}).
		Where("id = ? AND is_reserved = ?", id, false).
		Updates(map[string]any{
			"is_reserved": true,
			"reserved_by": reserver,
			"reserved_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CancelReservation clears the reservation of wish id only if reserver holds
// it. It reports whether a row changed.
func CancelReservation(ctx context.Context, db *gorm.DB, id, reserver uint) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Wish{}).
		Where("id = ? AND is_reserved = ? AND reserved_by = ?", id, true, reserver).
		Updates(clearReservation())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListReservedBy returns the wishes reserved by reserver, newest reservation first.
func ListReservedBy(ctx context.Context, db *gorm.DB, reserver uint) ([]domain.Wish, error) {
	var out []domain.Wish
	err := db.WithContext(ctx).
		Where("reserved_by = ? AND is_reserved = ?", reserver, true).
		Order("reserved_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// CancelReservationsBetween clears every reservation a holds on b's wishes and
// b holds on a's wishes.
func CancelReservationsBetween(ctx context.Context, db *gorm.DB, a, b uint) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Wish{}).
		Where("(user_id = ? AND reserved_by = ?) OR (user_id = ? AND reserved_by = ?)", a, b, b, a).
		Updates(clearReservation())
	return res.RowsAffected, res.Error
}

// CancelReservationsBy clears every reservation held by reserver.
func CancelReservationsBy(ctx context.Context, db *gorm.DB, reserver uint) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Wish{}).
		Where("reserved_by = ?", reserver).
		Updates(clearReservation())
	return res.RowsAffected, res.Error
}

// DeleteWishesOf removes every wish owned by owner.
func DeleteWishesOf(ctx context.Context, db *gorm.DB, owner uint) (int64, error) {
	res := db.WithContext(ctx).Where("user_id = ?", owner).Delete(&domain.Wish{})
	return res.RowsAffected, res.Error
}
