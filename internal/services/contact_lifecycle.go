package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/monocle-dev/wishlist/internal/common"
	"github.com/monocle-dev/wishlist/internal/logging"
	"github.com/monocle-dev/wishlist/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContactLifecycle runs the multi-entity cascades triggered by removing a
// contact, blocking a user or deleting an account. It keeps no state between
// calls: every call reads a snapshot, plans its effects and applies them in
// one transaction.
type ContactLifecycle struct {
	db       *gorm.DB
	notifier *Notifier
	logger   logging.Logger
}

func NewContactLifecycle(db *gorm.DB, notifier *Notifier, logger logging.Logger) *ContactLifecycle {
	return &ContactLifecycle{db: db, notifier: notifier, logger: logger}
}

type contactSnapshot struct {
	Contact      models.Contact
	Deleting     models.User
	Notified     models.User
	Reciprocal   *models.Contact
	Reservations []models.Wish
}

type accountSnapshot struct {
	User             models.User
	Contacts         []models.Contact
	OwnedReserved    []models.Wish
	HeldReservations []models.Wish
}

type blockSnapshot struct {
	Blocker      models.User
	Target       models.User
	Inbound      *models.Contact
	Reservations []models.Wish
}

// DeleteContact removes the contact row contactID, which must involve
// requestingUserID, together with its reciprocal row, and cancels every
// reservation between the two users.
func (m *ContactLifecycle) DeleteContact(ctx context.Context, requestingUserID, contactID uint) error {
	var effects []Effect

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snapshot, err := loadContactSnapshot(tx, requestingUserID, contactID)
		if err != nil {
			return err
		}

		effects = planContactDeletion(snapshot)

		return m.applyContactDeletion(ctx, tx, contactID, effects)
	})

	if err != nil {
		return err
	}

	m.logger.Info(ctx, "contact deleted", "contact_id", contactID, "user_id", requestingUserID, "effects", len(effects))

	return nil
}

// HandleAccountDeletion removes userID and everything it owns, cancelling
// its reservations in both directions and telling the affected users.
func (m *ContactLifecycle) HandleAccountDeletion(ctx context.Context, userID uint) error {
	var effects []Effect

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snapshot, err := loadAccountSnapshot(tx, userID)
		if err != nil {
			return err
		}

		effects = planAccountDeletion(snapshot)

		return applyEffects(ctx, tx, m.notifier, effects)
	})

	if err != nil {
		return err
	}

	m.logger.Info(ctx, "account deleted", "user_id", userID, "effects", len(effects))

	return nil
}

// BlockUser ends any relationship between blockerID and targetID and records
// a blocked edge from the blocker. The target is not notified of the block.
func (m *ContactLifecycle) BlockUser(ctx context.Context, blockerID, targetID uint) error {
	if blockerID == targetID {
		return common.Validation("You cannot block yourself")
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snapshot, err := loadBlockSnapshot(tx, blockerID, targetID)
		if err != nil {
			return err
		}

		return applyEffects(ctx, tx, m.notifier, planBlock(snapshot))
	})

	if err != nil {
		return err
	}

	m.logger.Info(ctx, "user blocked", "user_id", blockerID, "target_id", targetID)

	return nil
}

// applyContactDeletion applies a planned contact deletion. A reservation that
// changed under a snapshot whose contact row has since been deleted means a
// concurrent deletion committed first, which is reported as NotFound.
func (m *ContactLifecycle) applyContactDeletion(ctx context.Context, tx *gorm.DB, contactID uint, effects []Effect) error {
	err := applyEffects(ctx, tx, m.notifier, effects)
	if err == nil || !errors.Is(err, common.ErrConflict) {
		return err
	}

	var remaining int64
	if countErr := tx.WithContext(ctx).Model(&models.Contact{}).Where("id = ?", contactID).Count(&remaining).Error; countErr != nil {
		return fmt.Errorf("recheck contact %d: %w", contactID, countErr)
	}

	if remaining == 0 {
		return common.NotFound("Contact not found")
	}

	return err
}

func loadContactSnapshot(tx *gorm.DB, requestingUserID, contactID uint) (contactSnapshot, error) {
	var s contactSnapshot

	err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("id = ? AND (owner_id = ? OR target_id = ?)", contactID, requestingUserID, requestingUserID).
		First(&s.Contact).Error
	if err != nil {
		return s, notFoundOr(err, "Contact not found", "load contact")
	}

	if err := tx.First(&s.Deleting, requestingUserID).Error; err != nil {
		return s, notFoundOr(err, "User not found", "load deleting user")
	}

	if err := tx.First(&s.Notified, s.Contact.Peer(requestingUserID)).Error; err != nil {
		return s, notFoundOr(err, "User not found", "load notified user")
	}

	var reciprocal []models.Contact
	if err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("owner_id = ? AND target_id = ?", s.Contact.TargetID, s.Contact.OwnerID).
		Limit(1).Find(&reciprocal).Error; err != nil {
		return s, fmt.Errorf("load reciprocal contact: %w", err)
	}
	if len(reciprocal) > 0 {
		s.Reciprocal = &reciprocal[0]
	}

	reservations, err := reservationsBetween(tx, s.Deleting.ID, s.Notified.ID)
	if err != nil {
		return s, err
	}
	s.Reservations = reservations

	return s, nil
}

func loadAccountSnapshot(tx *gorm.DB, userID uint) (accountSnapshot, error) {
	var s accountSnapshot

	if err := tx.First(&s.User, userID).Error; err != nil {
		return s, notFoundOr(err, "User not found", "load user")
	}

	if err := tx.Where("owner_id = ? OR target_id = ?", userID, userID).Order("id").Find(&s.Contacts).Error; err != nil {
		return s, fmt.Errorf("load contacts: %w", err)
	}

	if err := tx.Where("user_id = ? AND is_reserved = ?", userID, true).Order("id").Find(&s.OwnedReserved).Error; err != nil {
		return s, fmt.Errorf("load reserved wishes: %w", err)
	}

	if err := tx.Where("reserved_by = ? AND is_reserved = ?", userID, true).Order("id").Find(&s.HeldReservations).Error; err != nil {
		return s, fmt.Errorf("load held reservations: %w", err)
	}

	return s, nil
}

func loadBlockSnapshot(tx *gorm.DB, blockerID, targetID uint) (blockSnapshot, error) {
	var s blockSnapshot

	if err := tx.First(&s.Blocker, blockerID).Error; err != nil {
		return s, notFoundOr(err, "User not found", "load blocker")
	}

	if err := tx.First(&s.Target, targetID).Error; err != nil {
		return s, notFoundOr(err, "User not found", "load block target")
	}

	var inbound []models.Contact
	if err := tx.Where("owner_id = ? AND target_id = ?", targetID, blockerID).Limit(1).Find(&inbound).Error; err != nil {
		return s, fmt.Errorf("load inbound contact: %w", err)
	}
	if len(inbound) > 0 {
		s.Inbound = &inbound[0]
	}

	reservations, err := reservationsBetween(tx, blockerID, targetID)
	if err != nil {
		return s, err
	}
	s.Reservations = reservations

	return s, nil
}

// reservationsBetween returns the reserved wishes where one of a and b owns
// the wish and the other holds the reservation.
func reservationsBetween(tx *gorm.DB, a, b uint) ([]models.Wish, error) {
	var wishes []models.Wish

	err := tx.Where("is_reserved = ? AND ((user_id = ? AND reserved_by = ?) OR (user_id = ? AND reserved_by = ?))",
		true, a, b, b, a).Order("id").Find(&wishes).Error
	if err != nil {
		return nil, fmt.Errorf("load reservations between %d and %d: %w", a, b, err)
	}

	return wishes, nil
}

func notFoundOr(err error, message, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.NotFound("%s", message)
	}
	return fmt.Errorf("%s: %w", op, err)
}
