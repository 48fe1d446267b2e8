// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Contact
// model. A pair of users is linked by at most one row; lookups by pair go
// through the (pair_low, pair_high) unique index.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/domain"
)

// CreateContact inserts a pending row from requester to recipient. A row that
// already links the pair yields ErrDuplicate.
func CreateContact(ctx context.Context, db *gorm.DB, from, to uint) (*domain.Contact, error) {
	c := &domain.Contact{UserID: from, ContactID: to, Status: domain.ContactPending}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		if IsDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return c, nil
}

// GetContact fetches a contact row by id.
func GetContact(ctx context.Context, db *gorm.DB, id uint) (*domain.Contact, error) {
	var c domain.Contact
	if err := db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindContactBetween returns the row linking a and b in either direction.
func FindContactBetween(ctx context.Context, db *gorm.DB, a, b uint) (*domain.Contact, error) {
	lo, hi := domain.PairKey(a, b)
	var c domain.Contact
	err := db.WithContext(ctx).
		Where("pair_low = ? AND pair_high = ?", lo, hi).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// TransitionContact applies updates to row id only while it is in status
// from. Zero affected rows means the row is gone or moved on: ErrNotFound.
func TransitionContact(ctx context.Context, db *gorm.DB, id uint, from domain.ContactStatus, updates map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteContact removes row id.
func DeleteContact(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.Contact{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListContactsFor returns every row where uid is a party, newest first.
// Blocked rows are only returned to the user who blocked. A non-empty status
// narrows the result.
func ListContactsFor(ctx context.Context, db *gorm.DB, uid uint, status domain.ContactStatus) ([]domain.Contact, error) {
	q := db.WithContext(ctx).
		Where("(user_id = ? OR contact_id = ?)", uid, uid).
		Where("(status <> ? OR blocked_by = ?)", domain.ContactBlocked, uid)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []domain.Contact
	err := q.Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

// AreContacts reports whether an accepted row links a and b.
func AreContacts(ctx context.Context, db *gorm.DB, a, b uint) (bool, error) {
	lo, hi := domain.PairKey(a, b)
	var n int64
	err := db.WithContext(ctx).Model(&domain.Contact{}).
		Where("pair_low = ? AND pair_high = ? AND status = ?", lo, hi, domain.ContactAccepted).
		Count(&n).Error
	return n > 0, err
}

// AcceptedContactIDs returns the ids of every user linked to uid by an
// accepted row.
func AcceptedContactIDs(ctx context.Context, db *gorm.DB, uid uint) ([]uint, error) {
	var rows []domain.Contact
	err := db.WithContext(ctx).
		Select("user_id", "contact_id").
		Where("(user_id = ? OR contact_id = ?) AND status = ?", uid, uid, domain.ContactAccepted).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]uint, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Other(uid))
	}
	return out, nil
}

// DeleteContactsOf removes every row where uid is a party.
func DeleteContactsOf(ctx context.Context, db *gorm.DB, uid uint) (int64, error) {
	res := db.WithContext(ctx).
		Where("user_id = ? OR contact_id = ?", uid, uid).
		Delete(&domain.Contact{})
	return res.RowsAffected, res.Error
}
