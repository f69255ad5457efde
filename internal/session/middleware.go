package session

import (
	"context"
	"net/http"
)

type contextKey string

const artistKey contextKey = "artist"

// RequireAuth guards organiser routes: requests without a live session are
// redirected to the login page. The resolved username is added to the
// request context.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		artist, err := m.Identity(r)
		if err != nil {
			http.Redirect(w, r, "/organiser/login", http.StatusFound)
			return
		}
		ctx := context.WithValue(r.Context(), artistKey, artist)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAnon guards the login and register pages: an already authenticated
// organiser is sent to their home page instead.
func (m *Manager) RequireAnon(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := m.Identity(r); err == nil {
			http.Redirect(w, r, "/organiser/home", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Artist extracts the authenticated organiser username placed in the
// context by RequireAuth.
func Artist(ctx context.Context) string {
	if artist, ok := ctx.Value(artistKey).(string); ok {
		return artist
	}
	return ""
}
