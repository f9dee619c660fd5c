package utils

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func savedCookie(t *testing.T, st *SessionStore, s *Session) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, st.Save(rec, s))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func requestWith(cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func TestSessionStore_RoundTrip(t *testing.T) {
	st := NewSessionStore("secret", "session", time.Hour, false)
	s := &Session{}
	s.SetUserID(42)
	s.AddFlash(FlashSuccess, "Logged in")

	cookie := savedCookie(t, st, s)
	assert.Equal(t, "session", cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, 3600, cookie.MaxAge)
	assert.False(t, s.Changed())

	loaded := st.Load(requestWith(cookie))
	assert.Equal(t, uint(42), loaded.UserID)
	assert.Equal(t, []Flash{{Category: FlashSuccess, Message: "Logged in"}}, loaded.PopFlashes())
	assert.Empty(t, loaded.PopFlashes())
	assert.True(t, loaded.Changed())
}

func TestSessionStore_RejectsTamperedCookies(t *testing.T) {
	st := NewSessionStore("secret", "session", time.Hour, false)
	s := &Session{}
	s.SetUserID(1)
	cookie := savedCookie(t, st, s)

	t.Run("modified value", func(t *testing.T) {
		parts := strings.Split(cookie.Value, ".")
		require.Len(t, parts, 3)
		parts[1] = base64.RawURLEncoding.EncodeToString([]byte(`{"uid":2}`))
		bad := *cookie
		bad.Value = strings.Join(parts, ".")
		loaded := st.Load(requestWith(&bad))
		assert.Zero(t, loaded.UserID)
		assert.True(t, loaded.Changed())
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewSessionStore("other", "session", time.Hour, false)
		assert.Zero(t, other.Load(requestWith(cookie)).UserID)
	})

	t.Run("garbage", func(t *testing.T) {
		loaded := st.Load(requestWith(&http.Cookie{Name: "session", Value: "not-a-token"}))
		assert.Zero(t, loaded.UserID)
	})

	t.Run("missing", func(t *testing.T) {
		loaded := st.Load(requestWith(nil))
		assert.Zero(t, loaded.UserID)
		assert.False(t, loaded.Changed())
	})
}

func TestSessionStore_Expired(t *testing.T) {
	st := NewSessionStore("secret", "session", time.Hour, false)
	token, err := st.sign(&Session{UserID: 7}, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	loaded := st.Load(requestWith(&http.Cookie{Name: "session", Value: token}))
	assert.Zero(t, loaded.UserID)
}

func TestSessionStore_ClearExpiresCookie(t *testing.T) {
	st := NewSessionStore("secret", "sid", time.Hour, true)
	s := &Session{UserID: 3}
	s.Clear()

	cookie := savedCookie(t, st, s)
	assert.Equal(t, "sid", cookie.Name)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
	assert.True(t, cookie.Secure)
}
