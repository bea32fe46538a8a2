package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/akpsi-umich/portal-backend/idp"
	"github.com/akpsi-umich/portal-backend/pkg/errors"
	"github.com/akpsi-umich/portal-backend/v1/models"
	"github.com/akpsi-umich/portal-backend/v1/utils"
)

// SessionResolver turns a session id into the signed-in principal
type SessionResolver interface {
	ResolveSession(ctx context.Context, sessionID string) (*idp.Principal, error)
}

// SessionCookie describes the cookie carrying the session id
type SessionCookie struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// Set writes the session cookie
func (c SessionCookie) Set(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(c.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie
func (c SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the session id carried by the request, if any
func (c SessionCookie) Read(r *http.Request) string {
	cookie, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

var (
	excludedPrefixes   = []string{"/_next/static", "/_next/image", "/static/"}
	excludedPaths      = []string{"/favicon.ico", "/health", "/metrics"}
	excludedExtensions = []string{".svg", ".png", ".jpg", ".jpeg", ".gif", ".webp"}
)

// IsExcludedPath reports whether the session boundary skips the path
func IsExcludedPath(path string) bool {
	for _, p := range excludedPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range excludedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	lower := strings.ToLower(path)
	for _, ext := range excludedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// SessionMiddleware resolves the session cookie on every request and puts the
// principal into the request context. A principal that fails the domain check
// is signed out and sent to the auth error page. Anonymous requests continue
// without a principal; the access router decides what they may see.
func SessionMiddleware(resolver SessionResolver, cookie SessionCookie) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsExcludedPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			sessionID := cookie.Read(r)
			if sessionID == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := resolver.ResolveSession(r.Context(), sessionID)
			switch {
			case err == nil:
				ctx := utils.SetPrincipal(r.Context(), principal)
				ctx = utils.SetSessionID(ctx, sessionID)
				next.ServeHTTP(w, r.WithContext(ctx))
			case errors.HasCode(err, errors.CodeDomainMismatch):
				cookie.Clear(w)
				http.Redirect(w, r, models.PageAuthError.Path(), http.StatusFound)
			case errors.HasCode(err, errors.CodeUnauthenticated):
				cookie.Clear(w)
				next.ServeHTTP(w, r)
			default:
				slog.Error("Failed to resolve session", "path", r.URL.Path, "error", err)
				next.ServeHTTP(w, r)
			}
		})
	}
}
