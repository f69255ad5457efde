package session

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"event-booking/internal/config"
)

// Manager issues opaque session cookies and resolves them back to the
// authenticated organiser username.
type Manager struct {
	store      Store
	cookieName string
	ttl        time.Duration
	secure     bool
}

func NewManager(store Store, cfg config.SessionConfig) *Manager {
	return &Manager{
		store:      store,
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		secure:     cfg.Secure,
	}
}

// Create starts a session for the given organiser and sets the cookie.
// The cookie is httpOnly; Secure is enabled in production.
func (m *Manager) Create(ctx context.Context, w http.ResponseWriter, artist string) error {
	id := uuid.NewString()
	if err := m.store.Set(ctx, id, artist, m.ttl); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		MaxAge:   int(m.ttl.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Identity resolves the request's session cookie to an organiser username.
func (m *Manager) Identity(r *http.Request) (string, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return "", ErrNoSession
	}
	return m.store.Get(r.Context(), cookie.Value)
}

// Destroy removes the server-side session and expires the cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil
	}
	if err := m.store.Del(r.Context(), cookie.Value); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		MaxAge:   -1,
	})
	return nil
}
