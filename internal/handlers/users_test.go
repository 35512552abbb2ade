package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/monocle-dev/wishlist/internal/birthday"
	"github.com/monocle-dev/wishlist/internal/models"
	"github.com/monocle-dev/wishlist/internal/testutil"
	"github.com/monocle-dev/wishlist/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setPrivacy(t *testing.T, s *testServer, settings models.PrivacySettings) {
	t.Helper()
	require.NoError(t, s.conn.Create(&settings).Error)
}

func TestGetUserProfile_PrivacyFiltering(t *testing.T) {
	s := newServer(t)
	owner := testutil.CreateUser(t, s.conn, "owner")
	friend := testutil.CreateUser(t, s.conn, "friend")
	stranger := testutil.CreateUser(t, s.conn, "stranger")
	testutil.Connect(t, s.conn, owner, friend)

	require.NoError(t, s.conn.Model(&owner).Updates(map[string]interface{}{"city": "Riga", "postal_address": "Main st 1"}).Error)

	t.Run("self sees everything", func(t *testing.T) {
		rec, env := s.do(http.MethodGet, path("/api/users/%d", owner.ID), nil, &owner)
		require.Equal(t, http.StatusOK, rec.Code)

		p := decode[types.ProfileResponse](t, env)
		require.NotNil(t, p.Email)
		require.NotNil(t, p.PostalAddress)
		assert.Equal(t, "Main st 1", *p.PostalAddress)
	})

	t.Run("contact sees default fields", func(t *testing.T) {
		rec, env := s.do(http.MethodGet, path("/api/users/%d", owner.ID), nil, &friend)
		require.Equal(t, http.StatusOK, rec.Code)

		p := decode[types.ProfileResponse](t, env)
		assert.True(t, p.CanView)
		assert.True(t, p.IsContact)
		assert.Nil(t, p.Email)
		assert.Nil(t, p.PostalAddress)
		require.NotNil(t, p.City)
		assert.Equal(t, "Riga", *p.City)
		require.NotNil(t, p.Age)
		assert.Equal(t, birthday.Age(owner.BirthDate, time.Now()), *p.Age)
	})

	t.Run("stranger sees a card only", func(t *testing.T) {
		rec, env := s.do(http.MethodGet, path("/api/users/%d", owner.ID), nil, &stranger)
		require.Equal(t, http.StatusOK, rec.Code)

		p := decode[types.ProfileResponse](t, env)
		assert.False(t, p.CanView)
		assert.Equal(t, "owner", p.Nickname)
		assert.Nil(t, p.City)
		assert.Nil(t, p.Age)
	})

	t.Run("unknown user", func(t *testing.T) {
		rec, _ := s.do(http.MethodGet, "/api/users/9999", nil, &owner)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetUserWishes_Visibility(t *testing.T) {
	s := newServer(t)
	owner := testutil.CreateUser(t, s.conn, "owner")
	friend := testutil.CreateUser(t, s.conn, "friend")
	stranger := testutil.CreateUser(t, s.conn, "stranger")
	testutil.Connect(t, s.conn, owner, friend)

	for _, title := range []string{"a", "b", "c", "d", "e"} {
		testutil.AddWish(t, s.conn, owner, title)
	}

	wishesPath := path("/api/users/%d/wishes", owner.ID)

	rec, _ := s.do(http.MethodGet, wishesPath, nil, &stranger)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := s.do(http.MethodGet, wishesPath, nil, &friend)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.WishResponse](t, env), 5)

	// Public profile without the full list: strangers get the top three.
	require.NoError(t, s.conn.Model(&models.PrivacySettings{}).
		Where("user_id = ?", owner.ID).
		Updates(map[string]interface{}{"is_public_profile": true, "show_full_wish_list": false}).Error)

	rec, env = s.do(http.MethodGet, wishesPath, nil, &stranger)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]types.WishResponse](t, env)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].Title)

	rec, env = s.do(http.MethodGet, wishesPath, nil, &friend)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.WishResponse](t, env), 5)
}

func TestGetUserContacts_Visibility(t *testing.T) {
	s := newServer(t)
	owner := testutil.CreateUser(t, s.conn, "owner")
	friend := testutil.CreateUser(t, s.conn, "friend")
	testutil.Connect(t, s.conn, owner, friend)

	setPrivacy(t, s, models.PrivacySettings{UserID: owner.ID, ShowAge: true, ShowContacts: false})

	contactsPath := path("/api/users/%d/contacts", owner.ID)

	rec, _ := s.do(http.MethodGet, contactsPath, nil, &friend)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := s.do(http.MethodGet, contactsPath, nil, &owner)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]types.ContactResponse](t, env)
	require.Len(t, list, 1)
	assert.Equal(t, friend.ID, list[0].User.ID)
}

func TestBlockedViewerGetsNotFound(t *testing.T) {
	s := newServer(t)
	owner := testutil.CreateUser(t, s.conn, "owner")
	blocked := testutil.CreateUser(t, s.conn, "blocked")
	testutil.AddContact(t, s.conn, owner, blocked, models.ContactStatusBlocked)
	setPrivacy(t, s, models.PrivacySettings{UserID: owner.ID, IsPublicProfile: true, ShowFullWishList: true})

	rec, _ := s.do(http.MethodGet, path("/api/users/%d", owner.ID), nil, &blocked)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(http.MethodGet, path("/api/users/%d/wishes", owner.ID), nil, &blocked)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env := s.do(http.MethodGet, "/api/users/search?q=own", nil, &blocked)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]types.UserSummary](t, env))
}

func TestSearchUsers(t *testing.T) {
	s := newServer(t)
	me := testutil.CreateUser(t, s.conn, "searcher")
	testutil.CreateUser(t, s.conn, "anna")
	testutil.CreateUser(t, s.conn, "annette")
	testutil.CreateUser(t, s.conn, "bob")

	rec, env := s.do(http.MethodGet, "/api/users/search?q=ANN", nil, &me)
	require.Equal(t, http.StatusOK, rec.Code)

	results := decode[[]types.UserSummary](t, env)
	require.Len(t, results, 2)
	assert.Equal(t, "anna", results[0].Nickname)
	assert.Equal(t, "annette", results[1].Nickname)

	rec, _ = s.do(http.MethodGet, "/api/users/search?q=a", nil, &me)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateUser(t *testing.T) {
	s := newServer(t)
	me := testutil.CreateUser(t, s.conn, "me")
	testutil.CreateUser(t, s.conn, "taken")

	rec, env := s.do(http.MethodPut, "/api/users/me", map[string]string{"city": "Tartu", "birth_date": "1991-01-02"}, &me)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	data := decode[struct {
		User types.UserResponse `json:"user"`
	}](t, env)
	assert.Equal(t, "Tartu", data.User.City)
	assert.Equal(t, "1991-01-02", data.User.BirthDate)

	rec, env = s.do(http.MethodPut, "/api/users/me", map[string]string{"nickname": "taken"}, &me)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Nickname already exists", env.Message)

	rec, env = s.do(http.MethodPut, "/api/users/me", map[string]string{"new_password": "another-pass", "current_password": "wrong-pass"}, &me)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Current password is incorrect", env.Message)

	rec, _ = s.do(http.MethodPut, "/api/users/me", map[string]string{"new_password": "another-pass", "current_password": testutil.Password}, &me)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(http.MethodPost, "/api/auth/login", map[string]string{"login": "me", "password": "another-pass"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteUser_Endpoint(t *testing.T) {
	s := newServer(t)
	me := testutil.CreateUser(t, s.conn, "me")
	friend := testutil.CreateUser(t, s.conn, "friend")
	testutil.Connect(t, s.conn, me, friend)
	testutil.Reserve(t, s.conn, testutil.AddWish(t, s.conn, friend, "gift"), me)

	rec, env := s.do(http.MethodDelete, "/api/users/me", map[string]string{"password": "wrong"}, &me)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Incorrect password", env.Message)

	rec, env = s.do(http.MethodDelete, "/api/users/me", map[string]string{"password": testutil.Password}, &me)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	assert.Zero(t, testutil.Count(t, s.conn, &models.User{}, "id = ?", me.ID))
	assert.Len(t, testutil.Notifications(t, s.conn, friend.ID, models.NotificationAccountDeleted), 1)
	assert.Len(t, testutil.Notifications(t, s.conn, friend.ID, models.NotificationWishCancelled), 1)

	rec, _ = s.do(http.MethodGet, "/api/auth/me", nil, &me)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadAvatar(t *testing.T) {
	s := newServer(t)
	me := testutil.CreateUser(t, s.conn, "me")

	rec, env := s.upload("/api/users/me/avatar", "image/jpeg", []byte("jpeg"), &me)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	require.Len(t, s.images.keys, 1)
	assert.Regexp(t, `^avatars/\d+/\d{4}/\d{2}/.+\.jpg$`, s.images.keys[0])

	var stored models.User
	require.NoError(t, s.conn.First(&stored, me.ID).Error)
	assert.Equal(t, "https://cdn.example.com/"+s.images.keys[0], stored.ProfileImage)
}

func TestUploadAvatar_Disabled(t *testing.T) {
	s := newServer(t, withoutUploads())
	me := testutil.CreateUser(t, s.conn, "me")

	rec, env := s.upload("/api/users/me/avatar", "image/jpeg", []byte("jpeg"), &me)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Image uploads are not configured", env.Message)
}

func TestUpcomingBirthdays(t *testing.T) {
	s := newServer(t)
	me := testutil.CreateUser(t, s.conn, "me")
	soon := testutil.CreateUser(t, s.conn, "soon")
	later := testutil.CreateUser(t, s.conn, "later")
	testutil.Connect(t, s.conn, me, soon)
	testutil.Connect(t, s.conn, me, later)

	now := time.Now()
	soonBirth := time.Date(now.Year()-30, now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 3)
	laterBirth := time.Date(now.Year()-30, now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 100)

	require.NoError(t, s.conn.Model(&soon).Update("birth_date", soonBirth).Error)
	require.NoError(t, s.conn.Model(&later).Update("birth_date", laterBirth).Error)

	rec, env := s.do(http.MethodGet, "/api/users/me/birthdays?days=30", nil, &me)
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode[[]types.BirthdayResponse](t, env)
	require.Len(t, list, 1)
	assert.Equal(t, soon.ID, list[0].User.ID)
	assert.Equal(t, birthday.DaysUntil(soonBirth, time.Now()), list[0].DaysUntil)
	require.NotNil(t, list[0].TurnsAge)
}
