// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// Functions follow the thin repository approach: no business rules, only
// persistence and query composition. A missing user surfaces as ErrNotFound.
package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/domain"
)

// CreateUser inserts u. Unique violations on email or nickname are returned
// as ErrDuplicate.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetUser fetches a user by primary key.
func GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// LockUser takes a row lock on user id for the rest of the enclosing
// transaction, serializing writers that mutate that user's owned rows.
// SQLite has no row locks and already serializes writers.
func LockUser(ctx context.Context, tx *gorm.DB, id uint) error {
	var u domain.User
	return tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&u, id).Error
}

// GetUserByEmail fetches a user by normalized email.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserExists reports whether a user with id exists.
func UserExists(ctx context.Context, db *gorm.DB, id uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// EmailTaken reports whether email belongs to a user other than exceptID.
func EmailTaken(ctx context.Context, db *gorm.DB, email string, exceptID uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.User{}).
		Where("email = ? AND id <> ?", email, exceptID).
		Count(&n).Error
	return n > 0, err
}

// NicknameTaken reports whether the folded nickname key belongs to a user
// other than exceptID.
func NicknameTaken(ctx context.Context, db *gorm.DB, key string, exceptID uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.User{}).
		Where("nickname_key = ? AND id <> ?", key, exceptID).
		Count(&n).Error
	return n > 0, err
}

// SaveUser writes every column of u.
func SaveUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	if err := db.WithContext(ctx).Save(u).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetUsersByID loads the given users keyed by id. Missing ids are absent from
// the map.
func GetUsersByID(ctx context.Context, db *gorm.DB, ids []uint) (map[uint]domain.User, error) {
	out := make(map[uint]domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.User
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, u := range rows {
		out[u.ID] = u
	}
	return out, nil
}

// SearchUsers returns users whose folded nickname starts with keyPrefix,
// excluding excludeID, ordered by nickname.
func SearchUsers(ctx context.Context, db *gorm.DB, keyPrefix string, excludeID uint, limit int) ([]domain.User, error) {
	var out []domain.User
	pattern := escapeLike(keyPrefix) + "%"
	err := db.WithContext(ctx).
		Where("nickname_key LIKE ? ESCAPE '\\' AND id <> ?", pattern, excludeID).
		Order("nickname_key ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// DeleteUser removes the user row.
func DeleteUser(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
