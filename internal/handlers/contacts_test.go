package handlers_test

import (
	"net/http"
	"testing"

	"github.com/monocle-dev/wishlist/internal/models"
	"github.com/monocle-dev/wishlist/internal/testutil"
	"github.com/monocle-dev/wishlist/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contactStatus(t *testing.T, s *testServer, owner, target models.User) models.ContactStatus {
	t.Helper()

	var c models.Contact
	err := s.conn.Where("owner_id = ? AND target_id = ?", owner.ID, target.ID).First(&c).Error
	if err != nil {
		return ""
	}
	return c.Status
}

func TestCreateContact_RequestAndAutoAccept(t *testing.T) {
	s := newServer(t)
	alice := testutil.CreateUser(t, s.conn, "alice")
	bob := testutil.CreateUser(t, s.conn, "bob")

	rec, env := s.do(http.MethodPost, "/api/contacts", map[string]uint{"user_id": bob.ID}, &alice)
	require.Equal(t, http.StatusCreated, rec.Code, env.Message)

	contact := decode[types.ContactResponse](t, env)
	assert.Equal(t, "pending", contact.Status)
	assert.Equal(t, bob.ID, contact.User.ID)
	assert.Len(t, testutil.Notifications(t, s.conn, bob.ID, models.NotificationContactRequest), 1)

	rec, env = s.do(http.MethodGet, "/api/contacts/requests", nil, &bob)
	require.Equal(t, http.StatusOK, rec.Code)
	requests := decode[[]types.ContactResponse](t, env)
	require.Len(t, requests, 1)
	assert.Equal(t, alice.ID, requests[0].User.ID)

	rec, env = s.do(http.MethodGet, "/api/contacts/sent", nil, &alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.ContactResponse](t, env), 1)

	rec, env = s.do(http.MethodPost, "/api/contacts", map[string]uint{"user_id": alice.ID}, &bob)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	assert.Equal(t, "Contact request accepted", env.Message)

	assert.Equal(t, models.ContactStatusAccepted, contactStatus(t, s, alice, bob))
	assert.Equal(t, models.ContactStatusAccepted, contactStatus(t, s, bob, alice))
	assert.Len(t, testutil.Notifications(t, s.conn, alice.ID, models.NotificationContactAccepted), 1)

	rec, env = s.do(http.MethodGet, "/api/contacts", nil, &alice)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]types.ContactResponse](t, env)
	require.Len(t, list, 1)
	assert.Equal(t, bob.ID, list[0].User.ID)
}

func TestCreateContact_Rejects(t *testing.T) {
	s := newServer(t)
	alice := testutil.CreateUser(t, s.conn, "alice")
	bob := testutil.CreateUser(t, s.conn, "bob")
	carol := testutil.CreateUser(t, s.conn, "carol")
	dave := testutil.CreateUser(t, s.conn, "dave")

	testutil.AddContact(t, s.conn, alice, bob, models.ContactStatusPending)
	testutil.AddContact(t, s.conn, carol, alice, models.ContactStatusBlocked)
	testutil.Connect(t, s.conn, alice, dave)

	tests := []struct {
		name   string
		target uint
		status int
	}{
		{name: "self", target: alice.ID, status: http.StatusBadRequest},
		{name: "duplicate pending", target: bob.ID, status: http.StatusBadRequest},
		{name: "already contacts", target: dave.ID, status: http.StatusBadRequest},
		{name: "blocked by target", target: carol.ID, status: http.StatusForbidden},
		{name: "unknown user", target: 9999, status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(http.MethodPost, "/api/contacts", map[string]uint{"user_id": tt.target}, &alice)
			assert.Equal(t, tt.status, rec.Code, env.Message)
			assert.False(t, env.Success)
		})
	}

	assert.Equal(t, models.ContactStatusPending, contactStatus(t, s, alice, bob))
	assert.Equal(t, models.ContactStatus(""), contactStatus(t, s, alice, carol))
}

func TestAcceptContact(t *testing.T) {
	s := newServer(t)
	alice := testutil.CreateUser(t, s.conn, "alice")
	bob := testutil.CreateUser(t, s.conn, "bob")
	request := testutil.AddContact(t, s.conn, alice, bob, models.ContactStatusPending)

	rec, _ := s.do(http.MethodPut, path("/api/contacts/%d/accept", request.ID), nil, &alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env := s.do(http.MethodPut, path("/api/contacts/%d/accept", request.ID), nil, &bob)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	assert.Equal(t, models.ContactStatusAccepted, contactStatus(t, s, alice, bob))
	assert.Equal(t, models.ContactStatusAccepted, contactStatus(t, s, bob, alice))
	assert.Len(t, testutil.Notifications(t, s.conn, alice.ID, models.NotificationContactAccepted), 1)

	rec, _ = s.do(http.MethodPut, path("/api/contacts/%d/accept", request.ID), nil, &bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRejectContact(t *testing.T) {
	s := newServer(t)
	alice := testutil.CreateUser(t, s.conn, "alice")
	bob := testutil.CreateUser(t, s.conn, "bob")
	request := testutil.AddContact(t, s.conn, alice, bob, models.ContactStatusPending)

	rec, _ := s.do(http.MethodPut, path("/api/contacts/%d/reject", request.ID), nil, &bob)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, models.ContactStatusRejected, contactStatus(t, s, alice, bob))
	assert.Equal(t, models.ContactStatus(""), contactStatus(t, s, bob, alice))
	assert.Len(t, testutil.Notifications(t, s.conn, alice.ID, models.NotificationContactRejected), 1)
}

func TestDeleteContact_Endpoint(t *testing.T) {
	s := newServer(t)
	a := testutil.CreateUser(t, s.conn, "usera")
	b := testutil.CreateUser(t, s.conn, "userb")
	ab, _ := testutil.Connect(t, s.conn, a, b)

	wish := testutil.AddWish(t, s.conn, a, "W")
	rec, _ := s.do(http.MethodPost, path("/api/wishes/%d/reserve", wish.ID), nil, &b)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := s.do(http.MethodDelete, path("/api/contacts/%d", ab.ID), nil, &b)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	assert.False(t, testutil.ReloadWish(t, s.conn, wish.ID).IsReserved)
	assert.Len(t, testutil.Notifications(t, s.conn, b.ID, models.NotificationWishCancelled), 1)
	assert.Len(t, testutil.Notifications(t, s.conn, a.ID, models.NotificationContactDeleted), 1)
	assert.Zero(t, testutil.Count(t, s.conn, &models.Contact{}, "owner_id IN ? OR target_id IN ?", []uint{a.ID, b.ID}, []uint{a.ID, b.ID}))

	rec, _ = s.do(http.MethodDelete, path("/api/contacts/%d", ab.ID), nil, &b)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBlockUser_Endpoint(t *testing.T) {
	s := newServer(t)
	a := testutil.CreateUser(t, s.conn, "usera")
	b := testutil.CreateUser(t, s.conn, "userb")
	testutil.Connect(t, s.conn, a, b)

	rec, env := s.do(http.MethodPost, "/api/contacts/block", map[string]uint{"user_id": b.ID}, &a)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	assert.Equal(t, models.ContactStatusBlocked, contactStatus(t, s, a, b))
	assert.Equal(t, models.ContactStatus(""), contactStatus(t, s, b, a))

	rec, _ = s.do(http.MethodPost, "/api/contacts", map[string]uint{"user_id": a.ID}, &b)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(http.MethodPost, "/api/contacts/block", map[string]uint{"user_id": a.ID}, &a)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
