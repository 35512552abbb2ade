package services

import (
	"fmt"

	"github.com/monocle-dev/wishlist/internal/models"
)

// Reasons recorded in the metadata of wish_cancelled notifications.
const (
	ReasonContactDeleted = "contact_deleted"
	ReasonAccountDeleted = "account_deleted"
	ReasonUserBlocked    = "user_blocked"
	ReasonWishDeleted    = "wish_deleted"
	ReasonHolderCancel   = "reservation_cancelled"
)

func planContactDeletion(s contactSnapshot) []Effect {
	deleting, notified := s.Deleting, s.Notified

	var effects []Effect

	for _, wish := range s.Reservations {
		effects = append(effects,
			CancelReservation{WishID: wish.ID, HolderID: *wish.ReservedBy},
			EmitNotification{Input: NotificationInput{
				RecipientID:   *wish.ReservedBy,
				Type:          models.NotificationWishCancelled,
				Title:         "Reservation cancelled",
				Message:       fmt.Sprintf("Your reservation of %q was cancelled because %s ended the contact.", wish.Title, deleting.DisplayName()),
				RelatedUserID: uintPtr(wish.UserID),
				RelatedWishID: uintPtr(wish.ID),
				Metadata: map[string]interface{}{
					"reason":       ReasonContactDeleted,
					"wish_title":   wish.Title,
					"initiator_id": deleting.ID,
				},
			}},
		)
	}

	effects = append(effects,
		EmitNotification{Input: NotificationInput{
			RecipientID:   notified.ID,
			Type:          models.NotificationContactDeleted,
			Title:         "Contact removed",
			Message:       fmt.Sprintf("%s removed you from their contacts.", deleting.DisplayName()),
			RelatedUserID: uintPtr(deleting.ID),
			Metadata: map[string]interface{}{
				"nickname":  deleting.Nickname,
				"real_name": deleting.RealName,
			},
		}},
		DeleteContactRow{ContactID: s.Contact.ID, Required: true},
	)

	if s.Reciprocal != nil {
		effects = append(effects, DeleteContactRow{ContactID: s.Reciprocal.ID})
	}

	return effects
}

func planAccountDeletion(s accountSnapshot) []Effect {
	user := s.User

	var effects []Effect

	notified := make(map[uint]bool)
	// One notice per peer. Blocked and rejected edges are not told.
	for _, contact := range s.Contacts {
		if contact.Status == models.ContactStatusBlocked || contact.Status == models.ContactStatusRejected {
			continue
		}

		peer := contact.Peer(user.ID)
		if notified[peer] {
			continue
		}
		notified[peer] = true

		effects = append(effects, EmitNotification{Input: NotificationInput{
			RecipientID: peer,
			Type:        models.NotificationAccountDeleted,
			Title:       "Contact left",
			Message:     fmt.Sprintf("%s deleted their account.", user.DisplayName()),
			Metadata: map[string]interface{}{
				"nickname":  user.Nickname,
				"real_name": user.RealName,
			},
		}})
	}

	// The user's own wishes are deleted below, so these notifications carry
	// the title instead of a wish reference.
	for _, wish := range s.OwnedReserved {
		effects = append(effects,
			CancelReservation{WishID: wish.ID, HolderID: *wish.ReservedBy},
			EmitNotification{Input: NotificationInput{
				RecipientID: *wish.ReservedBy,
				Type:        models.NotificationWishCancelled,
				Title:       "Reservation cancelled",
				Message:     fmt.Sprintf("Your reservation of %q was cancelled because %s deleted their account.", wish.Title, user.DisplayName()),
				Metadata: map[string]interface{}{
					"reason":       ReasonAccountDeleted,
					"wish_title":   wish.Title,
					"initiator_id": user.ID,
				},
			}},
		)
	}

	for _, wish := range s.HeldReservations {
		effects = append(effects,
			CancelReservation{WishID: wish.ID, HolderID: user.ID},
			EmitNotification{Input: NotificationInput{
				RecipientID:   wish.UserID,
				Type:          models.NotificationWishCancelled,
				Title:         "Wish available again",
				Message:       fmt.Sprintf("A reservation of %q was cancelled because its holder deleted their account.", wish.Title),
				RelatedWishID: uintPtr(wish.ID),
				Metadata: map[string]interface{}{
					"reason":       ReasonAccountDeleted,
					"wish_title":   wish.Title,
					"initiator_id": user.ID,
				},
			}},
		)
	}

	effects = append(effects,
		DeleteUserData{UserID: user.ID, Kind: UserContacts},
		DeleteUserData{UserID: user.ID, Kind: UserNotifications},
		DeleteUserData{UserID: user.ID, Kind: UserWishes},
		DeleteUserData{UserID: user.ID, Kind: UserPrivacySettings},
		DeleteUserData{UserID: user.ID, Kind: UserReputationVotes},
		DeleteUser{UserID: user.ID},
	)

	return effects
}

func planBlock(s blockSnapshot) []Effect {
	var effects []Effect

	for _, wish := range s.Reservations {
		holder := *wish.ReservedBy

		effects = append(effects,
			CancelReservation{WishID: wish.ID, HolderID: holder},
			EmitNotification{Input: NotificationInput{
				RecipientID:   holder,
				Type:          models.NotificationWishCancelled,
				Title:         "Reservation cancelled",
				Message:       fmt.Sprintf("Your reservation of %q was cancelled.", wish.Title),
				RelatedWishID: uintPtr(wish.ID),
				Metadata: map[string]interface{}{
					"reason":     ReasonUserBlocked,
					"wish_title": wish.Title,
				},
			}},
		)
	}

	if s.Inbound != nil {
		effects = append(effects, DeleteContactRow{ContactID: s.Inbound.ID})
	}

	effects = append(effects, SetContactStatus{
		OwnerID:  s.Blocker.ID,
		TargetID: s.Target.ID,
		Status:   models.ContactStatusBlocked,
	})

	return effects
}
