package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/domain"
)

// CreateVote inserts v.
func CreateVote(ctx context.Context, db *gorm.DB, v *domain.ReputationVote) error {
	return db.WithContext(ctx).Create(v).Error
}

// VoteExists reports whether from already voted on to for promiseID.
func VoteExists(ctx context.Context, db *gorm.DB, from, to uint, promiseID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.ReputationVote{}).
		Where("from_user_id = ? AND to_user_id = ? AND promise_id = ?", from, to, promiseID).
		Count(&n).Error
	return n > 0, err
}

// TallyVotes counts the positive and negative votes received by uid.
func TallyVotes(ctx context.Context, db *gorm.DB, uid uint) (positive, negative int64, err error) {
	var rows []struct {
		Type  domain.VoteType
		Total int64
	}
	err = db.WithContext(ctx).Model(&domain.ReputationVote{}).
		Select("type, COUNT(*) AS total").
		Where("to_user_id = ?", uid).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, err
	}
	for _, r := range rows {
		switch r.Type {
		case domain.VotePositive:
			positive = r.Total
		case domain.VoteNegative:
			negative = r.Total
		}
	}
	return positive, negative, nil
}

// DeleteVotesOf removes every vote cast by or on uid.
func DeleteVotesOf(ctx context.Context, db *gorm.DB, uid uint) (int64, error) {
	res := db.WithContext(ctx).
		Where("from_user_id = ? OR to_user_id = ?", uid, uid).
		Delete(&domain.ReputationVote{})
	return res.RowsAffected, res.Error
}
