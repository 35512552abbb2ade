package services

import (
	"testing"

	"github.com/monocle-dev/wishlist/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func user(id uint, nick string) models.User {
	u := models.User{Nickname: nick, RealName: nick}
	u.ID = id
	return u
}

func reservedWish(id, owner, holder uint, title string) models.Wish {
	w := models.Wish{UserID: owner, Title: title, IsReserved: true, ReservedBy: uintPtr(holder)}
	w.ID = id
	return w
}

func contact(id, owner, target uint, status models.ContactStatus) models.Contact {
	c := models.Contact{OwnerID: owner, TargetID: target, Status: status}
	c.ID = id
	return c
}

func TestPlanContactDeletion_Order(t *testing.T) {
	reciprocal := contact(11, 2, 1, models.ContactStatusAccepted)
	s := contactSnapshot{
		Contact:    contact(10, 1, 2, models.ContactStatusAccepted),
		Deleting:   user(1, "anna"),
		Notified:   user(2, "boris"),
		Reciprocal: &reciprocal,
		Reservations: []models.Wish{
			reservedWish(100, 1, 2, "Bike"),
			reservedWish(200, 2, 1, "Book"),
		},
	}

	effects := planContactDeletion(s)
	require.Len(t, effects, 7)

	assert.Equal(t, CancelReservation{WishID: 100, HolderID: 2}, effects[0])
	assert.Equal(t, uint(2), effects[1].(EmitNotification).Input.RecipientID)
	assert.Equal(t, models.NotificationWishCancelled, effects[1].(EmitNotification).Input.Type)
	assert.Equal(t, CancelReservation{WishID: 200, HolderID: 1}, effects[2])
	assert.Equal(t, uint(1), effects[3].(EmitNotification).Input.RecipientID)

	notice := effects[4].(EmitNotification).Input
	assert.Equal(t, models.NotificationContactDeleted, notice.Type)
	assert.Equal(t, uint(2), notice.RecipientID)
	assert.Equal(t, uint(1), *notice.RelatedUserID)

	assert.Equal(t, DeleteContactRow{ContactID: 10, Required: true}, effects[5])
	assert.Equal(t, DeleteContactRow{ContactID: 11}, effects[6])
}

func TestPlanContactDeletion_NoReciprocal(t *testing.T) {
	effects := planContactDeletion(contactSnapshot{
		Contact:  contact(10, 1, 2, models.ContactStatusPending),
		Deleting: user(2, "boris"),
		Notified: user(1, "anna"),
	})

	require.Len(t, effects, 2)
	assert.Equal(t, uint(1), effects[0].(EmitNotification).Input.RecipientID)
	assert.Equal(t, DeleteContactRow{ContactID: 10, Required: true}, effects[1])
}

func TestPlanAccountDeletion(t *testing.T) {
	s := accountSnapshot{
		User: user(1, "ulla"),
		Contacts: []models.Contact{
			contact(1, 1, 2, models.ContactStatusAccepted),
			contact(2, 2, 1, models.ContactStatusAccepted),
			contact(3, 3, 1, models.ContactStatusPending),
			contact(4, 1, 4, models.ContactStatusBlocked),
			contact(5, 5, 1, models.ContactStatusRejected),
		},
		OwnedReserved:    []models.Wish{reservedWish(100, 1, 2, "Bike")},
		HeldReservations: []models.Wish{reservedWish(200, 3, 1, "Scarf")},
	}

	effects := planAccountDeletion(s)

	var recipients []uint
	for _, e := range effects {
		if n, ok := e.(EmitNotification); ok && n.Input.Type == models.NotificationAccountDeleted {
			recipients = append(recipients, n.Input.RecipientID)
		}
	}
	assert.Equal(t, []uint{2, 3}, recipients)

	assert.Equal(t, CancelReservation{WishID: 100, HolderID: 2}, effects[2])
	ownedNote := effects[3].(EmitNotification).Input
	assert.Equal(t, uint(2), ownedNote.RecipientID)
	assert.Nil(t, ownedNote.RelatedWishID)

	assert.Equal(t, CancelReservation{WishID: 200, HolderID: 1}, effects[4])
	heldNote := effects[5].(EmitNotification).Input
	assert.Equal(t, uint(3), heldNote.RecipientID)
	assert.Equal(t, uint(200), *heldNote.RelatedWishID)

	assert.Equal(t, []Effect{
		DeleteUserData{UserID: 1, Kind: UserContacts},
		DeleteUserData{UserID: 1, Kind: UserNotifications},
		DeleteUserData{UserID: 1, Kind: UserWishes},
		DeleteUserData{UserID: 1, Kind: UserPrivacySettings},
		DeleteUserData{UserID: 1, Kind: UserReputationVotes},
		DeleteUser{UserID: 1},
	}, effects[6:])
}

func TestPlanBlock(t *testing.T) {
	inbound := contact(7, 2, 1, models.ContactStatusAccepted)

	effects := planBlock(blockSnapshot{
		Blocker:      user(1, "anna"),
		Target:       user(2, "boris"),
		Inbound:      &inbound,
		Reservations: []models.Wish{reservedWish(100, 1, 2, "Bike")},
	})

	require.Len(t, effects, 4)
	assert.Equal(t, CancelReservation{WishID: 100, HolderID: 2}, effects[0])
	assert.Equal(t, DeleteContactRow{ContactID: 7}, effects[2])
	assert.Equal(t, SetContactStatus{OwnerID: 1, TargetID: 2, Status: models.ContactStatusBlocked}, effects[3])
}
