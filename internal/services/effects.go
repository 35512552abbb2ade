package services

import (
	"context"
	"fmt"

	"github.com/monocle-dev/wishlist/internal/common"
	"github.com/monocle-dev/wishlist/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Effect is one write of a cascade. Cascades are planned as an ordered list
// of effects from a snapshot and then applied in a single transaction.
type Effect interface {
	Apply(ctx context.Context, tx *gorm.DB, notifier *Notifier) error
}

func applyEffects(ctx context.Context, tx *gorm.DB, notifier *Notifier, effects []Effect) error {
	for _, effect := range effects {
		if err := effect.Apply(ctx, tx, notifier); err != nil {
			return err
		}
	}
	return nil
}

// CancelReservation clears the reservation of WishID held by HolderID. It
// fails when the reservation no longer matches the snapshot, so a
// notification is never sent for a cancellation that did not happen.
type CancelReservation struct {
	WishID   uint
	HolderID uint
}

func (e CancelReservation) Apply(ctx context.Context, tx *gorm.DB, _ *Notifier) error {
	result := tx.WithContext(ctx).Model(&models.Wish{}).
		Where("id = ? AND is_reserved = ? AND reserved_by = ?", e.WishID, true, e.HolderID).
		Updates(map[string]interface{}{
			"is_reserved": false,
			"reserved_by": nil,
			"reserved_at": nil,
		})

	if result.Error != nil {
		return fmt.Errorf("cancel reservation of wish %d: %w", e.WishID, result.Error)
	}

	if result.RowsAffected == 0 {
		return common.Conflict("Reservation of wish %d changed concurrently", e.WishID)
	}

	return nil
}

type EmitNotification struct {
	Input NotificationInput
}

func (e EmitNotification) Apply(ctx context.Context, tx *gorm.DB, notifier *Notifier) error {
	_, err := notifier.Emit(ctx, tx, e.Input)
	return err
}

// DeleteContactRow removes one contact edge. When Required is set a missing
// row means another caller got there first and the cascade fails with
// NotFound.
type DeleteContactRow struct {
	ContactID uint
	Required  bool
}

func (e DeleteContactRow) Apply(ctx context.Context, tx *gorm.DB, _ *Notifier) error {
	result := tx.WithContext(ctx).Delete(&models.Contact{}, e.ContactID)

	if result.Error != nil {
		return fmt.Errorf("delete contact %d: %w", e.ContactID, result.Error)
	}

	if e.Required && result.RowsAffected == 0 {
		return common.NotFound("Contact not found")
	}

	return nil
}

// SetContactStatus creates or updates the Owner -> Target edge.
type SetContactStatus struct {
	OwnerID  uint
	TargetID uint
	Status   models.ContactStatus
}

func (e SetContactStatus) Apply(ctx context.Context, tx *gorm.DB, _ *Notifier) error {
	contact := models.Contact{OwnerID: e.OwnerID, TargetID: e.TargetID, Status: e.Status}

	err := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}, {Name: "target_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&contact).Error

	if err != nil {
		return fmt.Errorf("set contact %d -> %d to %s: %w", e.OwnerID, e.TargetID, e.Status, err)
	}

	return nil
}

// DeleteUserData removes every row of one kind that belongs to UserID.
type DeleteUserData struct {
	UserID uint
	Kind   UserDataKind
}

type UserDataKind string

const (
	UserContacts        UserDataKind = "contacts"
	UserNotifications   UserDataKind = "notifications"
	UserWishes          UserDataKind = "wishes"
	UserPrivacySettings UserDataKind = "privacy_settings"
	UserReputationVotes UserDataKind = "reputation_votes"
)

func (e DeleteUserData) Apply(ctx context.Context, tx *gorm.DB, _ *Notifier) error {
	db := tx.WithContext(ctx)

	var result *gorm.DB

	switch e.Kind {
	case UserContacts:
		result = db.Where("owner_id = ? OR target_id = ?", e.UserID, e.UserID).Delete(&models.Contact{})
	case UserNotifications:
		result = db.Where("user_id = ?", e.UserID).Delete(&models.Notification{})
	case UserWishes:
		result = db.Where("user_id = ?", e.UserID).Delete(&models.Wish{})
	case UserPrivacySettings:
		result = db.Where("user_id = ?", e.UserID).Delete(&models.PrivacySettings{})
	case UserReputationVotes:
		result = db.Where("from_user_id = ? OR to_user_id = ?", e.UserID, e.UserID).Delete(&models.ReputationVote{})
	default:
		return fmt.Errorf("unknown user data kind %q", e.Kind)
	}

	if result.Error != nil {
		return fmt.Errorf("delete %s of user %d: %w", e.Kind, e.UserID, result.Error)
	}

	return nil
}

type DeleteUser struct {
	UserID uint
}

func (e DeleteUser) Apply(ctx context.Context, tx *gorm.DB, _ *Notifier) error {
	result := tx.WithContext(ctx).Delete(&models.User{}, e.UserID)

	if result.Error != nil {
		return fmt.Errorf("delete user %d: %w", e.UserID, result.Error)
	}

	if result.RowsAffected == 0 {
		return common.NotFound("User not found")
	}

	return nil
}
