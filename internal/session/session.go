// Package session keeps the signed-in user in an HS256-signed JWT cookie.
// There is no server-side session table.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	CookieName = "fintrack_session"
	DefaultTTL = 7 * 24 * time.Hour
)

// ErrNoSession means the request carries no valid session.
var ErrNoSession = errors.New("no valid session")

type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{secret: []byte(secret), ttl: ttl, secure: secure, now: time.Now}
}

// Sign returns a token naming userID as subject.
func (m *Manager) Sign(userID int64) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"iat": now.Unix(),
		"exp": now.Add(m.ttl).Unix(),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns the user id it names.
func (m *Manager) Parse(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return 0, ErrNoSession
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrNoSession
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, ErrNoSession
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrNoSession
	}
	return id, nil
}

// Issue sets the session cookie for userID.
func (m *Manager) Issue(w http.ResponseWriter, userID int64) error {
	token, err := m.Sign(userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// UserID reads the session cookie of r.
func (m *Manager) UserID(r *http.Request) (int64, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return 0, ErrNoSession
	}
	return m.Parse(c.Value)
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
