package services

import (
	"context"
	"fmt"
	"time"

	"github.com/monocle-dev/wishlist/internal/birthday"
	"github.com/monocle-dev/wishlist/internal/logging"
	"github.com/monocle-dev/wishlist/internal/models"
	"gorm.io/gorm"
)

const birthdayBatchSize = 200

// BirthdayReminder tells users about upcoming birthdays of their contacts.
type BirthdayReminder struct {
	db       *gorm.DB
	notifier *Notifier
	logger   logging.Logger
	offsets  map[int]bool
	now      func() time.Time
}

func NewBirthdayReminder(db *gorm.DB, notifier *Notifier, logger logging.Logger, offsets []int) *BirthdayReminder {
	set := make(map[int]bool, len(offsets))
	for _, d := range offsets {
		set[d] = true
	}

	return &BirthdayReminder{db: db, notifier: notifier, logger: logger, offsets: set, now: time.Now}
}

// Run emits the reminders due today and returns how many were created. It
// is safe to run repeatedly: a recipient gets at most one reminder per
// birthday person per day.
func (r *BirthdayReminder) Run(ctx context.Context) (int, error) {
	now := r.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	emitted := 0
	var batch []models.User

	result := r.db.WithContext(ctx).
		Select("id", "nickname", "real_name", "birth_date").
		FindInBatches(&batch, birthdayBatchSize, func(tx *gorm.DB, _ int) error {
			for _, user := range batch {
				days := birthday.DaysUntil(user.BirthDate, now)
				if !r.offsets[days] {
					continue
				}

				n, err := r.remindContacts(ctx, user, days, startOfDay)
				if err != nil {
					return err
				}
				emitted += n
			}
			return nil
		})

	if result.Error != nil {
		return emitted, fmt.Errorf("birthday reminders: %w", result.Error)
	}

	if emitted > 0 {
		r.logger.Info(ctx, "birthday reminders sent", "count", emitted)
	}

	return emitted, nil
}

func (r *BirthdayReminder) remindContacts(ctx context.Context, user models.User, days int, since time.Time) (int, error) {
	db := r.db.WithContext(ctx)

	var recipients []uint
	err := db.Model(&models.Contact{}).
		Where("target_id = ? AND status = ?", user.ID, models.ContactStatusAccepted).
		Order("owner_id").
		Pluck("owner_id", &recipients).Error
	if err != nil {
		return 0, fmt.Errorf("load contacts of user %d: %w", user.ID, err)
	}

	emitted := 0

	for _, recipient := range recipients {
		var existing int64
		err := db.Model(&models.Notification{}).
			Where("user_id = ? AND type = ? AND related_user_id = ? AND created_at >= ?",
				recipient, models.NotificationBirthdayReminder, user.ID, since).
			Count(&existing).Error
		if err != nil {
			return emitted, fmt.Errorf("check existing reminder: %w", err)
		}
		if existing > 0 {
			continue
		}

		_, err = r.notifier.Emit(ctx, db, NotificationInput{
			RecipientID:   recipient,
			Type:          models.NotificationBirthdayReminder,
			Title:         "Upcoming birthday",
			Message:       birthdayMessage(user, days),
			RelatedUserID: uintPtr(user.ID),
			Metadata: map[string]interface{}{
				"days_until": days,
				"birthday":   birthday.Next(user.BirthDate, r.now()).Format("2006-01-02"),
			},
		})
		if err != nil {
			r.logger.Warn(ctx, "failed to emit birthday reminder", "recipient_id", recipient, "user_id", user.ID, "error", err)
			continue
		}
		emitted++
	}

	return emitted, nil
}

func birthdayMessage(user models.User, days int) string {
	name := user.DisplayName()

	switch days {
	case 0:
		return fmt.Sprintf("Today is %s's birthday!", name)
	case 1:
		return fmt.Sprintf("%s's birthday is tomorrow.", name)
	default:
		return fmt.Sprintf("%s's birthday is in %d days.", name, days)
	}
}
