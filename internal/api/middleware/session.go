package middleware

import (
	"context"
	"log"
	"net/http"

	"github.com/example/celulex-store/internal/session"
)

// SessionCookieName is the cookie carrying the client's session id.
const SessionCookieName = "session_id"

type contextKey string

const sessionContextKey contextKey = "session"

// SessionMiddleware loads the client's session (creating one on first touch)
// and stashes it in the request context. Handlers that mutate the session
// persist it back through the store explicitly.
func SessionMiddleware(store session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := loadSession(r, store)
			if sess == nil {
				sess = session.New()
				if err := store.Put(r.Context(), sess); err != nil {
					log.Printf("[API] Failed to create session: %v", err)
					respondError(w, "internal error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    sess.ID,
					Path:     "/",
					MaxAge:   4 * 60 * 60, // matches the session TTL
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func loadSession(r *http.Request, store session.Store) *session.Session {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil
	}
	sess, err := store.Get(r.Context(), cookie.Value)
	if err != nil {
		// Expired or unknown id: fall through to a fresh session.
		return nil
	}
	return sess
}

// GetSession retrieves the request's session from the context.
func GetSession(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(*session.Session)
	return sess, ok
}
