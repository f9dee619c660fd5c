package utils

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Flash categories used by the views.
const (
	FlashError   = "error"
	FlashSuccess = "success"
	FlashInfo    = "info"
)

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// Session is the per-request view of the signed session cookie.
type Session struct {
	UserID  uint
	Flashes []Flash
	changed bool
}

// Clear drops the identity and every pending notice.
func (s *Session) Clear() {
	s.UserID = 0
	s.Flashes = nil
	s.changed = true
}

// SetUserID records the authenticated user.
func (s *Session) SetUserID(id uint) {
	s.UserID = id
	s.changed = true
}

// AddFlash queues a notice for the next page.
func (s *Session) AddFlash(category, message string) {
	s.Flashes = append(s.Flashes, Flash{Category: category, Message: message})
	s.changed = true
}

// PopFlashes returns and removes the pending notices.
func (s *Session) PopFlashes() []Flash {
	if len(s.Flashes) == 0 {
		return nil
	}
	out := s.Flashes
	s.Flashes = nil
	s.changed = true
	return out
}

// Changed reports whether the session must be written back.
func (s *Session) Changed() bool { return s.changed }

func (s *Session) empty() bool { return s.UserID == 0 && len(s.Flashes) == 0 }

type sessionClaims struct {
	UserID  uint    `json:"uid,omitempty"`
	Flashes []Flash `json:"fl,omitempty"`
	jwt.RegisteredClaims
}

// SessionStore signs sessions into an HS256 JWT carried by a cookie.
type SessionStore struct {
	secret     []byte
	cookieName string
	maxAge     time.Duration
	secure     bool
}

// NewSessionStore creates a store. maxAge bounds both the cookie and the token expiry.
func NewSessionStore(secret, cookieName string, maxAge time.Duration, secure bool) *SessionStore {
	if cookieName == "" {
		cookieName = "session"
	}
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	return &SessionStore{secret: []byte(secret), cookieName: cookieName, maxAge: maxAge, secure: secure}
}

// CookieName returns the name of the session cookie.
func (st *SessionStore) CookieName() string { return st.cookieName }

// Load reads the session from the request. Missing, tampered or expired cookies give an empty session.
func (st *SessionStore) Load(r *http.Request) *Session {
	cookie, err := r.Cookie(st.cookieName)
	if err != nil || cookie.Value == "" {
		return &Session{}
	}
	claims, err := st.parse(cookie.Value)
	if err != nil {
		// Force the bad cookie to be replaced or removed.
		return &Session{changed: true}
	}
	return &Session{UserID: claims.UserID, Flashes: claims.Flashes}
}

// Save writes the session cookie, or expires it when the session is empty.
func (st *SessionStore) Save(w http.ResponseWriter, s *Session) error {
	if s.empty() {
		http.SetCookie(w, &http.Cookie{
			Name:     st.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   st.secure,
			SameSite: http.SameSiteLaxMode,
		})
		s.changed = false
		return nil
	}
	token, err := st.sign(s, time.Now())
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     st.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(st.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   st.secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.changed = false
	return nil
}

func (st *SessionStore) sign(s *Session, now time.Time) (string, error) {
	claims := sessionClaims{
		UserID:  s.UserID,
		Flashes: s.Flashes,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(st.maxAge)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(st.secret)
}

func (st *SessionStore) parse(tokenStr string) (*sessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return st.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid session claims")
	}
	return claims, nil
}
