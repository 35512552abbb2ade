package models

import (
	"fmt"
	"time"
)

type User struct {
	BaseModel

	Email         string    `gorm:"uniqueIndex;not null"`
	Nickname      string    `gorm:"uniqueIndex;not null"`
	PasswordHash  string    `gorm:"not null"`
	RealName      string    `gorm:"not null"`
	BirthDate     time.Time `gorm:"type:date;not null"`
	ProfileImage  string
	City          string
	Country       string
	PostalAddress string

	// Relationships
	Wishes          []Wish           `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Notifications   []Notification   `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	PrivacySettings *PrivacySettings `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// DisplayName renders the user as "Real Name (@nick)", or "@nick" when the
// real name is empty.
func (u User) DisplayName() string {
	if u.RealName == "" {
		return "@" + u.Nickname
	}
	return fmt.Sprintf("%s (@%s)", u.RealName, u.Nickname)
}
