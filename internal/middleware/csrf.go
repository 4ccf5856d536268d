package middleware

import (
	"net/http"

	"github.com/gorilla/csrf"
)

// PlaintextCSRF tells gorilla/csrf the request arrived over plain HTTP so
// its origin checks do not demand TLS. Only mount it outside production.
func PlaintextCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}
