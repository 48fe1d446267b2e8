package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// NotificationType classifies a notification.
type NotificationType string

const (
	NotifyContactRequest  NotificationType = "contact_request"
	NotifyContactAccepted NotificationType = "contact_accepted"
	NotifyContactRejected NotificationType = "contact_rejected"
	NotifyWishReserved    NotificationType = "wish_reserved"
	NotifyWishCancelled   NotificationType = "wish_cancelled"
	NotifyBirthday        NotificationType = "birthday"
	NotifyReputationVote  NotificationType = "reputation_vote"
)

// Metadata is an opaque JSON object attached to a notification. It is stored
// as JSON text so it works unchanged on SQLite and Postgres.
type Metadata map[string]any

// Value implements driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return errors.New("metadata: unsupported column type")
	}
	if len(raw) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(raw, m)
}

// Notification is a recipient-scoped record created as a side effect of
// another operation.
type Notification struct {
	ID            uint             `json:"id"            gorm:"primaryKey"`
	UserID        uint             `json:"userId"        gorm:"not null;index:idx_notifications_user_created,priority:1"`
	Type          NotificationType `json:"type"          gorm:"type:varchar(32);not null;index"`
	Title         string           `json:"title"         gorm:"type:varchar(160);not null"`
	Message       string           `json:"message"       gorm:"type:text"`
	IsRead        bool             `json:"isRead"        gorm:"not null;default:false;index"`
	RelatedUserID *uint            `json:"relatedUserId,omitempty"`
	RelatedWishID *uint            `json:"relatedWishId,omitempty"`
	Metadata      Metadata         `json:"metadata,omitempty" gorm:"type:text"`
	CreatedAt     time.Time        `json:"createdAt"     gorm:"index:idx_notifications_user_created,priority:2"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return "notifications" }
