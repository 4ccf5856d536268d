package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rahul4469/competitor-monitor/context"
)

// ClientMiddleware gives every browser a stable anonymous id so result
// containers can be fenced per browser. It is not authentication.
type ClientMiddleware struct {
	cookieName string
	secure     bool
}

func NewClientMiddleware(cookieName string, secure bool) *ClientMiddleware {
	return &ClientMiddleware{
		cookieName: cookieName,
		secure:     secure,
	}
}

// SetClient loads the client id from its cookie, issuing a new one when the
// cookie is missing or malformed, and stores it in the request context.
func (m *ClientMiddleware) SetClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var clientID string
		if cookie, err := r.Cookie(m.cookieName); err == nil {
			if id, err := uuid.Parse(cookie.Value); err == nil {
				clientID = id.String()
			}
		}

		if clientID == "" {
			clientID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     m.cookieName,
				Value:    clientID,
				Path:     "/",
				HttpOnly: true,
				Secure:   m.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.ContextSetClient(r.Context(), clientID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientID is a helper to get the client id from any handler.
func ClientID(r *http.Request) string {
	return context.ContextGetClient(r.Context())
}
