package domain

// PrivacySettings controls which profile fields other users can see.
// Bool columns carry no DB default so an explicit false is persisted as such.
type PrivacySettings struct {
	ID             uint `json:"-"              gorm:"primaryKey"`
	UserID         uint `json:"userId"         gorm:"not null;uniqueIndex"`
	ShowEmail      bool `json:"showEmail"      gorm:"not null"`
	ShowBirthDate  bool `json:"showBirthDate"  gorm:"not null"`
	ShowAge        bool `json:"showAge"        gorm:"not null"`
	ShowRealName   bool `json:"showRealName"   gorm:"not null"`
	ShowAddress    bool `json:"showAddress"    gorm:"not null"`
	WishlistPublic bool `json:"wishlistPublic" gorm:"not null"`
}

// TableName returns the database table name for PrivacySettings.
func (PrivacySettings) TableName() string { return "privacy_settings" }

// DefaultPrivacy returns the settings a new account starts with.
func DefaultPrivacy(userID uint) PrivacySettings {
	return PrivacySettings{
		UserID:        userID,
		ShowBirthDate: true,
		ShowAge:       true,
		ShowRealName:  true,
	}
}
