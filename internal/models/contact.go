package models

type ContactStatus string

const (
	ContactStatusPending  ContactStatus = "pending"
	ContactStatusAccepted ContactStatus = "accepted"
	ContactStatusRejected ContactStatus = "rejected"
	ContactStatusBlocked  ContactStatus = "blocked"
)

// Contact is a directed edge from Owner to Target. A friendship is two
// accepted rows, one per direction.
type Contact struct {
	BaseModel

	OwnerID  uint          `gorm:"not null;uniqueIndex:idx_contact_pair;index"`
	TargetID uint          `gorm:"not null;uniqueIndex:idx_contact_pair;index"`
	Status   ContactStatus `gorm:"type:varchar(20);not null;index"`

	// Relationships
	Owner  User `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Target User `gorm:"foreignKey:TargetID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// Peer returns the party of the edge that is not userID.
func (c Contact) Peer(userID uint) uint {
	if c.OwnerID == userID {
		return c.TargetID
	}
	return c.OwnerID
}
