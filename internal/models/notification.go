package models

import (
	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationWishReserved     NotificationType = "wish_reserved"
	NotificationWishCancelled    NotificationType = "wish_cancelled"
	NotificationContactRequest   NotificationType = "contact_request"
	NotificationContactAccepted  NotificationType = "contact_accepted"
	NotificationContactRejected  NotificationType = "contact_rejected"
	NotificationContactDeleted   NotificationType = "contact_deleted"
	NotificationAccountDeleted   NotificationType = "account_deleted"
	NotificationBirthdayReminder NotificationType = "birthday_reminder"
	NotificationReputationVote   NotificationType = "reputation_vote"
	NotificationTest             NotificationType = "test"
)

// Notification belongs to its recipient (UserID). Related user and wish are
// plain references without foreign keys; they may point at rows that no
// longer exist.
type Notification struct {
	BaseModel

	UserID        uint             `gorm:"not null;index" json:"user_id"`
	Type          NotificationType `gorm:"type:varchar(32);not null;index" json:"type"`
	Title         string           `gorm:"not null" json:"title"`
	Message       string           `json:"message"`
	IsRead        bool             `gorm:"not null;index" json:"is_read"`
	RelatedUserID *uint            `gorm:"index" json:"related_user_id,omitempty"`
	RelatedWishID *uint            `json:"related_wish_id,omitempty"`
	Metadata      datatypes.JSON   `json:"metadata,omitempty"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
