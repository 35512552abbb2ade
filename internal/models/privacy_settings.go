package models

type PrivacySettings struct {
	BaseModel

	UserID            uint `gorm:"not null;uniqueIndex"`
	ShowAge           bool `gorm:"not null"`
	ShowEmail         bool `gorm:"not null"`
	ShowFullWishList  bool `gorm:"not null"`
	ShowContacts      bool `gorm:"not null"`
	ShowLocation      bool `gorm:"not null"`
	ShowPostalAddress bool `gorm:"not null"`
	IsPublicProfile   bool `gorm:"not null"`
}

// DefaultPrivacySettings is what a user gets before ever saving their own.
func DefaultPrivacySettings(userID uint) PrivacySettings {
	return PrivacySettings{
		UserID:           userID,
		ShowAge:          true,
		ShowFullWishList: true,
		ShowContacts:     true,
		ShowLocation:     true,
	}
}
