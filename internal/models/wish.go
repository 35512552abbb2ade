package models

import "time"

const MaxWishesPerUser = 10

type Wish struct {
	BaseModel

	UserID      uint   `gorm:"not null;index;uniqueIndex:idx_wish_user_position"`
	Title       string `gorm:"not null"`
	Description string
	ImageURL    string
	Link        string
	Position    int `gorm:"not null;uniqueIndex:idx_wish_user_position"` // 1-based
	IsReserved  bool
	ReservedBy  *uint `gorm:"index"`
	ReservedAt  *time.Time

	// Relationships
	User     User  `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Reserver *User `gorm:"foreignKey:ReservedBy;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}
