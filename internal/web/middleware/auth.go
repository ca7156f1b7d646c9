package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/locsheet/internal/config"
	"github.com/JonMunkholm/locsheet/internal/core"
)

// AnonymousActor is stored for requests without a key when keys are optional.
const AnonymousActor = "anonymous"

// APIKeyAuth resolves the X-API-Key header to an actor and stores it in the
// request context. A missing key is rejected when RequireAPIKey is set and
// otherwise maps to AnonymousActor; an unknown key is always rejected.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	keys := cfg.Keys()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				if cfg.RequireAPIKey {
					slog.Warn("auth: missing API key",
						"path", r.URL.Path,
						"method", r.Method,
						"remote_addr", r.RemoteAddr,
					)
					writeAuthError(w, http.StatusUnauthorized, "missing API key", "AUTH_MISSING_KEY")
					return
				}
				ctx := core.ContextWithActor(r.Context(), core.Actor{ID: AnonymousActor})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			actorID, ok := lookupAPIKey(apiKey, keys)
			if !ok {
				slog.Warn("auth: invalid API key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeAuthError(w, http.StatusForbidden, "invalid API key", "AUTH_INVALID_KEY")
				return
			}

			ctx := core.ContextWithActor(r.Context(), core.Actor{ID: actorID, Name: actorID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// lookupAPIKey compares key against every configured key in constant time
// and returns the matching actor.
func lookupAPIKey(key string, keys map[string]string) (string, bool) {
	var actor string
	found := 0
	for candidate, id := range keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(candidate)) == 1 {
			actor = id
			found = 1
		}
	}
	return actor, found == 1
}

func writeAuthError(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + msg + `","code":"` + code + `"}`))
}
