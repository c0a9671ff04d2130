// Package middleware attaches the viewer's dashboard session to each request.
package middleware

import (
	"context"
	"net/http"

	"github.com/newthinker/chartdesk/internal/dashboard"
)

// CookieName holds the session id.
const CookieName = "chartdesk_session"

type ctxKey struct{}

// Sessions returns middleware that loads the session named by the cookie,
// creating and mounting a new one when it is missing or expired.
func Sessions(store *dashboard.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(CookieName); err == nil {
				id = c.Value
			}

			sess, created := store.GetOrCreate(r.Context(), id)
			if created {
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    sess.ID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// WithSession stores sess in ctx.
func WithSession(ctx context.Context, sess *dashboard.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// SessionFrom returns the request's session, or nil outside the middleware.
func SessionFrom(ctx context.Context) *dashboard.Session {
	sess, _ := ctx.Value(ctxKey{}).(*dashboard.Session)
	return sess
}
