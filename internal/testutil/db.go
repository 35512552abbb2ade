// Package testutil provides a throwaway SQLite store and fixtures for tests.
package testutil

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/monocle-dev/wishlist/db"
	"github.com/monocle-dev/wishlist/internal/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Password is the plain-text password of every user created by CreateUser.
const Password = "correct-horse"

var passwordHash = func() string {
	h, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}()

// NewDB returns a migrated SQLite store living in the test's temp dir.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := db.Connect("sqlite", filepath.Join(t.TempDir(), "wishlist.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })

	require.NoError(t, db.MigrateDatabase(conn))

	return conn
}

// CreateUser inserts a user whose email and real name derive from nickname.
func CreateUser(t *testing.T, conn *gorm.DB, nickname string) models.User {
	t.Helper()

	user := models.User{
		Email:        strings.ToLower(nickname) + "@example.com",
		Nickname:     nickname,
		PasswordHash: passwordHash,
		RealName:     strings.ToUpper(nickname[:1]) + nickname[1:],
		BirthDate:    time.Date(1990, time.May, 17, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, conn.Create(&user).Error)

	return user
}

// Connect links a and b with a contact row in each direction.
func Connect(t *testing.T, conn *gorm.DB, a, b models.User) (models.Contact, models.Contact) {
	t.Helper()

	ab := AddContact(t, conn, a, b, models.ContactStatusAccepted)
	ba := AddContact(t, conn, b, a, models.ContactStatusAccepted)

	return ab, ba
}

func AddContact(t *testing.T, conn *gorm.DB, owner, target models.User, status models.ContactStatus) models.Contact {
	t.Helper()

	contact := models.Contact{OwnerID: owner.ID, TargetID: target.ID, Status: status}
	require.NoError(t, conn.Create(&contact).Error)

	return contact
}

// AddWish appends a wish to the owner's list.
func AddWish(t *testing.T, conn *gorm.DB, owner models.User, title string) models.Wish {
	t.Helper()

	var count int64
	require.NoError(t, conn.Model(&models.Wish{}).Where("user_id = ?", owner.ID).Count(&count).Error)

	wish := models.Wish{UserID: owner.ID, Title: title, Position: int(count) + 1}
	require.NoError(t, conn.Create(&wish).Error)

	return wish
}

// Reserve marks wish as reserved by reserver without any notification.
func Reserve(t *testing.T, conn *gorm.DB, wish models.Wish, reserver models.User) models.Wish {
	t.Helper()

	now := time.Now()
	require.NoError(t, conn.Model(&wish).Updates(map[string]interface{}{
		"is_reserved": true,
		"reserved_by": reserver.ID,
		"reserved_at": now,
	}).Error)
	require.NoError(t, conn.First(&wish, wish.ID).Error)

	return wish
}

func ReloadWish(t *testing.T, conn *gorm.DB, id uint) models.Wish {
	t.Helper()

	var wish models.Wish
	require.NoError(t, conn.First(&wish, id).Error)

	return wish
}

// Notifications returns the recipient's notifications of the given type.
func Notifications(t *testing.T, conn *gorm.DB, recipientID uint, typ models.NotificationType) []models.Notification {
	t.Helper()

	var out []models.Notification
	require.NoError(t, conn.Where("user_id = ? AND type = ?", recipientID, typ).Order("id").Find(&out).Error)

	return out
}

func Count(t *testing.T, conn *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	var n int64
	require.NoError(t, conn.Model(model).Where(query, args...).Count(&n).Error)

	return n
}
