package models

const (
	VotePositive = 1
	VoteNegative = -1
)

type ReputationVote struct {
	BaseModel

	FromUserID uint    `gorm:"not null;uniqueIndex:idx_vote_promise;index"`
	ToUserID   uint    `gorm:"not null;uniqueIndex:idx_vote_promise;index"`
	Value      int     `gorm:"not null"`
	PromiseID  *string `gorm:"type:varchar(128);uniqueIndex:idx_vote_promise"`

	// Relationships
	FromUser User `gorm:"foreignKey:FromUserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	ToUser   User `gorm:"foreignKey:ToUserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
