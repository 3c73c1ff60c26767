package web

import (
	"net/http"

	"github.com/JonMunkholm/stmtimport/internal/core"
)

// withClient records the client address and User-Agent for import sessions.
// RemoteAddr has already been rewritten by TrustedRealIP.
func withClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.ContextWithClient(r.Context(), r.RemoteAddr, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
