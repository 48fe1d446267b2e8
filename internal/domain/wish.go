package domain

import "time"

// MaxWishPosition is the highest rank a wish can hold in a list.
const MaxWishPosition = 10

// Wish is one item of a user's ranked gift list. Reservation state is written
// by another user through a conditional update (see repo.ReserveWish).
type Wish struct {
	ID           uint       `json:"id"           gorm:"primaryKey"`
	UserID       uint       `json:"userId"       gorm:"not null;index:idx_wishes_user_position,priority:1"`
	Title        string     `json:"title"        gorm:"type:varchar(120);not null"`
	Description  string     `json:"description"  gorm:"type:text"`
	Image        string     `json:"image"        gorm:"type:varchar(512)"`
	PurchaseLink string     `json:"purchaseLink" gorm:"type:varchar(1024)"`
	Position     int        `json:"position"     gorm:"not null;index:idx_wishes_user_position,priority:2;check:position BETWEEN 1 AND 10"`
	IsReserved   bool       `json:"isReserved"   gorm:"not null;default:false"`
	ReservedBy   *uint      `json:"reservedBy"   gorm:"index"`
	ReservedAt   *time.Time `json:"reservedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// TableName returns the database table name for Wish.
func (Wish) TableName() string { return "wishes" }
