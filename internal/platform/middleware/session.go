package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"consentflow/pkg/requestcontext"
)

// SessionConfig describes the session cookie.
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

type sessionIssuedKey struct{}

// GetSessionID retrieves the journey session ID from the context.
func GetSessionID(ctx context.Context) string {
	return requestcontext.SessionID(ctx)
}

// SessionIssued reports whether the session id was issued by this request
// rather than sent by the client.
func SessionIssued(ctx context.Context) bool {
	issued, _ := ctx.Value(sessionIssuedKey{}).(bool)
	return issued
}

// RequireSession resolves the session id from the cookie, issuing a new one
// when the cookie is missing or malformed. Handlers read it with GetSessionID.
func RequireSession(cfg SessionConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sessionID := ""
			if c, err := r.Cookie(cfg.CookieName); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					sessionID = c.Value
				}
			}
			if sessionID == "" {
				sessionID = IssueSession(w, cfg)
				ctx = context.WithValue(ctx, sessionIssuedKey{}, true)
				logger.DebugContext(ctx, "session issued",
					"session_ref", requestcontext.SessionRef(sessionID),
					"request_id", GetRequestID(ctx),
				)
			}
			ctx = requestcontext.WithSessionID(ctx, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IssueSession sets a cookie carrying a fresh session id and returns the id.
func IssueSession(w http.ResponseWriter, cfg SessionConfig) string {
	sessionID := uuid.NewString()
	SetSessionCookie(w, cfg, sessionID)
	return sessionID
}

// SetSessionCookie points the session cookie at sessionID, replacing any
// session cookie already set on this response.
func SetSessionCookie(w http.ResponseWriter, cfg SessionConfig, sessionID string) {
	h := w.Header()
	var kept []string
	for _, v := range h.Values("Set-Cookie") {
		if !strings.HasPrefix(v, cfg.CookieName+"=") {
			kept = append(kept, v)
		}
	}
	h.Del("Set-Cookie")
	for _, v := range kept {
		h.Add("Set-Cookie", v)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
