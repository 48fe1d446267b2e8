package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/domain"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/repo"
)

// VoteInput is the body of a reputation vote.
type VoteInput struct {
	Type      domain.VoteType `json:"type"      binding:"required"`
	PromiseID *string         `json:"promiseId" binding:"omitempty,max=64"`
}

// ReputationService records votes between users and tallies them.
type ReputationService struct {
	DB       *gorm.DB
	Notifier Notifier
}

// NewReputationService constructs a ReputationService.
func NewReputationService(db *gorm.DB, n Notifier) *ReputationService {
	return &ReputationService{DB: db, Notifier: n}
}

// Vote records from's vote on to. A vote tied to a promise may only be cast
// once per pair and promise.
func (s *ReputationService) Vote(ctx context.Context, from, to uint, in VoteInput) (*domain.ReputationVote, error) {
	if from == to {
		return nil, ErrSelfVote
	}
	if !in.Type.Valid() {
		return nil, ErrInvalidVote
	}
	var promise *string
	if in.PromiseID != nil {
		if p := strings.TrimSpace(*in.PromiseID); p != "" {
			promise = &p
		}
	}

	var voter *domain.User
	v := &domain.ReputationVote{FromUserID: from, ToUserID: to, Type: in.Type, PromiseID: promise}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetUser(ctx, tx, to); err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}
		var err error
		if voter, err = repo.GetUser(ctx, tx, from); err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}
		if promise != nil {
			dup, err := repo.VoteExists(ctx, tx, from, to, *promise)
			if err != nil {
				return err
			}
			if dup {
				return ErrDuplicateVote
			}
		}
		return repo.CreateVote(ctx, tx, v)
	})
	if err != nil {
		return nil, err
	}

	meta := domain.Metadata{"voteType": string(v.Type)}
	if promise != nil {
		meta["promiseId"] = *promise
	}
	s.Notifier.Notify(ctx, &domain.Notification{
		UserID:        to,
		Type:          domain.NotifyReputationVote,
		Title:         "New reputation vote",
		Message:       fmt.Sprintf("%s left you a %s vote", voter.Nickname, v.Type),
		RelatedUserID: uintPtr(from),
		Metadata:      meta,
	})
	return v, nil
}

// Tally returns the votes received by uid.
func (s *ReputationService) Tally(ctx context.Context, uid uint) (*domain.ReputationTally, error) {
	ok, err := repo.UserExists(ctx, s.DB, uid)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUserNotFound
	}
	pos, neg, err := repo.TallyVotes(ctx, s.DB, uid)
	if err != nil {
		return nil, err
	}
	return &domain.ReputationTally{UserID: uid, Positive: pos, Negative: neg, Score: pos - neg}, nil
}
