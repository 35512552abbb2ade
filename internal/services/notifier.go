package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/monocle-dev/wishlist/internal/logging"
	"github.com/monocle-dev/wishlist/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationInput struct {
	RecipientID   uint
	Type          models.NotificationType
	Title         string
	Message       string
	RelatedUserID *uint
	RelatedWishID *uint
	Metadata      map[string]interface{}
}

// Notifier records notifications. It always inserts a new unread row and
// never updates or deduplicates existing ones.
type Notifier struct {
	logger logging.Logger
}

func NewNotifier(logger logging.Logger) *Notifier {
	return &Notifier{logger: logger}
}

// Emit inserts the notification through tx, which may be a transaction.
func (n *Notifier) Emit(ctx context.Context, tx *gorm.DB, in NotificationInput) (*models.Notification, error) {
	notification := models.Notification{
		UserID:        in.RecipientID,
		Type:          in.Type,
		Title:         in.Title,
		Message:       in.Message,
		IsRead:        false,
		RelatedUserID: in.RelatedUserID,
		RelatedWishID: in.RelatedWishID,
	}

	if len(in.Metadata) > 0 {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal notification metadata: %w", err)
		}
		notification.Metadata = datatypes.JSON(raw)
	}

	if err := tx.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("create %s notification for user %d: %w", in.Type, in.RecipientID, err)
	}

	return &notification, nil
}

// EmitBestEffort is Emit for ordinary request flows, where a lost
// notification must not fail the request.
func (n *Notifier) EmitBestEffort(ctx context.Context, tx *gorm.DB, in NotificationInput) {
	if _, err := n.Emit(ctx, tx, in); err != nil {
		n.logger.Warn(ctx, "failed to emit notification", "type", in.Type, "recipient_id", in.RecipientID, "error", err)
	}
}

func uintPtr(v uint) *uint {
	return &v
}
