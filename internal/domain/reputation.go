package domain

import "time"

// VoteType is the polarity of a reputation vote.
type VoteType string

const (
	VotePositive VoteType = "positive"
	VoteNegative VoteType = "negative"
)

// Valid reports whether v is a known vote type.
func (v VoteType) Valid() bool { return v == VotePositive || v == VoteNegative }

// ReputationVote is one user's opinion of another, optionally tied to a
// promise (a fulfilled or broken gift commitment).
type ReputationVote struct {
	ID         uint      `json:"id"         gorm:"primaryKey"`
	FromUserID uint      `json:"fromUserId" gorm:"not null;index:idx_votes_pair,priority:1"`
	ToUserID   uint      `json:"toUserId"   gorm:"not null;index:idx_votes_pair,priority:2;index"`
	Type       VoteType  `json:"type"       gorm:"type:varchar(16);not null;check:type IN ('positive','negative')"`
	PromiseID  *string   `json:"promiseId,omitempty" gorm:"type:varchar(64)"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TableName returns the database table name for ReputationVote.
func (ReputationVote) TableName() string { return "reputation_votes" }

// ReputationTally aggregates the votes received by a user.
type ReputationTally struct {
	UserID   uint  `json:"userId"`
	Positive int64 `json:"positive"`
	Negative int64 `json:"negative"`
	Score    int64 `json:"score"`
}
