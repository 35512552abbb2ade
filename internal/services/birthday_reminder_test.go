package services

import (
	"context"
	"testing"
	"time"

	"github.com/monocle-dev/wishlist/internal/logging"
	"github.com/monocle-dev/wishlist/internal/models"
	"github.com/monocle-dev/wishlist/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBirthdayReminder_Run(t *testing.T) {
	conn := testutil.NewDB(t)
	logger := logging.Discard()
	ctx := context.Background()

	now := time.Date(2025, time.May, 10, 9, 0, 0, 0, time.UTC)

	celebrant := testutil.CreateUser(t, conn, "cele")
	friend := testutil.CreateUser(t, conn, "frank")
	pending := testutil.CreateUser(t, conn, "penny")
	other := testutil.CreateUser(t, conn, "otto")

	require.NoError(t, conn.Model(&celebrant).Update("birth_date", time.Date(1990, time.May, 11, 0, 0, 0, 0, time.UTC)).Error)
	require.NoError(t, conn.Model(&other).Update("birth_date", time.Date(1990, time.June, 30, 0, 0, 0, 0, time.UTC)).Error)
	require.NoError(t, conn.Model(&friend).Update("birth_date", time.Date(1991, time.December, 1, 0, 0, 0, 0, time.UTC)).Error)

	testutil.Connect(t, conn, celebrant, friend)
	testutil.AddContact(t, conn, pending, celebrant, models.ContactStatusPending)
	testutil.Connect(t, conn, other, friend)

	r := NewBirthdayReminder(conn, NewNotifier(logger), logger, []int{0, 1, 7})
	r.now = func() time.Time { return now }

	n, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	reminders := testutil.Notifications(t, conn, friend.ID, models.NotificationBirthdayReminder)
	require.Len(t, reminders, 1)
	assert.Equal(t, celebrant.ID, *reminders[0].RelatedUserID)
	assert.Contains(t, reminders[0].Message, "tomorrow")
	assert.Contains(t, string(reminders[0].Metadata), "2025-05-11")

	assert.Empty(t, testutil.Notifications(t, conn, pending.ID, models.NotificationBirthdayReminder))
	assert.Empty(t, testutil.Notifications(t, conn, celebrant.ID, models.NotificationBirthdayReminder))

	// A second run on the same day does not repeat the reminder.
	n, err = r.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBirthdayMessage(t *testing.T) {
	u := models.User{Nickname: "anna", RealName: "Anna"}

	assert.Equal(t, "Today is Anna (@anna)'s birthday!", birthdayMessage(u, 0))
	assert.Equal(t, "Anna (@anna)'s birthday is tomorrow.", birthdayMessage(u, 1))
	assert.Equal(t, "Anna (@anna)'s birthday is in 7 days.", birthdayMessage(u, 7))
}
