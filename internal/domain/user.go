// Package domain defines the persistence models of the wishlist service:
// users, contact relationships, wishes, notifications, privacy settings and
// reputation votes. The types are mapped with GORM and shared by the repo and
// services packages.
package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// User is a registered account. Email and the case-folded nickname are unique.
type User struct {
	ID           uint       `json:"id"           gorm:"primaryKey"`
	Email        string     `json:"email"        gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	PasswordHash string     `json:"-"            gorm:"column:password;type:varchar(255);not null"`
	Nickname     string     `json:"nickname"     gorm:"type:varchar(30);not null"`
	NicknameKey  string     `json:"-"            gorm:"type:varchar(30);not null;uniqueIndex:ux_users_nickname"`
	RealName     string     `json:"realName"     gorm:"type:varchar(120)"`
	BirthDate    *time.Time `json:"birthDate"`
	Age          int        `json:"age"`
	ProfileImage string     `json:"profileImage" gorm:"type:varchar(512)"`

	Street     string `json:"street"     gorm:"type:varchar(160)"`
	City       string `json:"city"       gorm:"type:varchar(120)"`
	PostalCode string `json:"postalCode" gorm:"type:varchar(20)"`
	Province   string `json:"province"   gorm:"type:varchar(120)"`
	Country    string `json:"country"    gorm:"type:varchar(120)"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// UserSummary is the minimal public identity embedded in other resources.
type UserSummary struct {
	ID           uint   `json:"id"`
	Nickname     string `json:"nickname"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// Summary returns the public identity of u.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Nickname: u.Nickname, ProfileImage: u.ProfileImage}
}

// RefreshAge recomputes the stored Age from BirthDate as of now.
func (u *User) RefreshAge(now time.Time) {
	if u.BirthDate == nil {
		u.Age = 0
		return
	}
	u.Age = AgeAt(*u.BirthDate, now)
}

// NicknameKey folds a nickname for case-insensitive uniqueness.
// A new Caser is built per call because casers are not goroutine safe.
func NicknameKey(nickname string) string {
	return cases.Fold().String(strings.TrimSpace(nickname))
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AgeAt returns the age in whole years of someone born on birth, as of now.
func AgeAt(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// NextBirthday returns the next occurrence (today included) of the birth
// month/day on or after now's calendar day, in now's location. A 29 February
// birthday falls on 1 March in non-leap years.
func NextBirthday(birth, now time.Time) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	next := time.Date(now.Year(), birth.Month(), birth.Day(), 0, 0, 0, 0, now.Location())
	if next.Before(today) {
		next = time.Date(now.Year()+1, birth.Month(), birth.Day(), 0, 0, 0, 0, now.Location())
	}
	return next
}
