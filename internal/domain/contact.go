package domain

import (
	"time"

	"gorm.io/gorm"
)

// ContactStatus is the lifecycle state of a contact relationship.
type ContactStatus string

const (
	ContactPending  ContactStatus = "pending"
	ContactAccepted ContactStatus = "accepted"
	ContactRejected ContactStatus = "rejected"
	ContactBlocked  ContactStatus = "blocked"
)

// Valid reports whether s is a known status.
func (s ContactStatus) Valid() bool {
	switch s {
	case ContactPending, ContactAccepted, ContactRejected, ContactBlocked:
		return true
	}
	return false
}

// Contact is the single row describing the relationship between two users.
//
// UserID is the requester and ContactID the recipient. PairLow/PairHigh hold
// the unordered pair and carry the unique index, so at most one row exists per
// pair regardless of who asked first. There are no mirrored rows.
type Contact struct {
	ID          uint          `json:"id"          gorm:"primaryKey"`
	UserID      uint          `json:"userId"      gorm:"not null;index"`
	ContactID   uint          `json:"contactId"   gorm:"not null;index"`
	PairLow     uint          `json:"-"           gorm:"not null;uniqueIndex:ux_contacts_pair,priority:1"`
	PairHigh    uint          `json:"-"           gorm:"not null;uniqueIndex:ux_contacts_pair,priority:2"`
	Status      ContactStatus `json:"status"      gorm:"type:varchar(16);not null;index;check:status IN ('pending','accepted','rejected','blocked')"`
	BlockedBy   *uint         `json:"blockedBy,omitempty"`
	BlockedAt   *time.Time    `json:"blockedAt,omitempty"`
	RespondedAt *time.Time    `json:"respondedAt,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// TableName returns the database table name for Contact.
func (Contact) TableName() string { return "contacts" }

// BeforeCreate derives the unordered pair columns from the directed ids.
func (c *Contact) BeforeCreate(_ *gorm.DB) error {
	c.PairLow, c.PairHigh = PairKey(c.UserID, c.ContactID)
	return nil
}

// PairKey orders two user ids as (min, max).
func PairKey(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// Involves reports whether uid is either party of the relationship.
func (c Contact) Involves(uid uint) bool {
	return c.UserID == uid || c.ContactID == uid
}

// Other returns the party that is not uid.
func (c Contact) Other(uid uint) uint {
	if c.UserID == uid {
		return c.ContactID
	}
	return c.UserID
}
