package web

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/JonMunkholm/locsheet/internal/core"
)

// WithRequestMetadata adds IP and User-Agent to context for audit logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, clientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}

// clientIP strips the port from RemoteAddr, which TrustedRealIP has already
// resolved to the client address.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// actorFrom returns the actor set by the auth middleware.
func actorFrom(r *http.Request) core.Actor {
	actor, _ := core.ActorFromContext(r.Context())
	return actor
}

// lang picks the response language from Accept-Language.
func (s *Server) lang(r *http.Request) string {
	if s.translator == nil {
		return s.cfg.Interchange.DefaultLocale
	}
	return s.translator.Match(r.Header.Get("Accept-Language")).String()
}

func parseUnitID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	return id, err == nil
}

// isLocalURL reports whether next is a same-origin path safe to redirect to.
func isLocalURL(next string) bool {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return false
	}
	u, err := url.Parse(next)
	return err == nil && u.Scheme == "" && u.Host == ""
}

// formBool accepts the values HTML checkboxes and API clients send.
func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
