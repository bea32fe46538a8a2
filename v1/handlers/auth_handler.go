package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/akpsi-umich/portal-backend/idp"
	"github.com/akpsi-umich/portal-backend/pkg/errors"
	"github.com/akpsi-umich/portal-backend/shared/utils"
	"github.com/akpsi-umich/portal-backend/v1/middleware"
	"github.com/akpsi-umich/portal-backend/v1/models"
	v1utils "github.com/akpsi-umich/portal-backend/v1/utils"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	stateCookieName    = "portal_oauth_state"
	verifierCookieName = "portal_oauth_verifier"
	oauthCookieMaxAge  = 600
	loginFailedPath    = "/auth/login?error=authentication_failed"
)

// AuthURLBuilder builds the identity provider's authorize URL
type AuthURLBuilder interface {
	AuthCodeURL(state, verifier, hostedDomain string) string
}

// SessionIssuer opens and closes sessions for principals
type SessionIssuer interface {
	CompleteOAuthExchange(ctx context.Context, code, verifier string) (*idp.Session, error)
	SignOut(ctx context.Context, sessionID string) error
	Policy() idp.DomainPolicy
}

// AuthHandler serves the sign-in flow
type AuthHandler struct {
	provider AuthURLBuilder
	sessions SessionIssuer
	cookie   middleware.SessionCookie
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(provider AuthURLBuilder, sessions SessionIssuer, cookie middleware.SessionCookie) *AuthHandler {
	return &AuthHandler{provider: provider, sessions: sessions, cookie: cookie}
}

// SetupAuthRoutes configures the /auth routes
func (h *AuthHandler) SetupAuthRoutes(mux *http.ServeMux) {
	mux.Handle("/auth/login", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleLogin)))
	mux.Handle("/auth/callback", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleCallback)))
	mux.Handle("/auth/logout", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleLogout)))
	mux.Handle("/auth/error", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleError)))
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if errCode := r.URL.Query().Get("error"); errCode != "" {
		respondWithView(w, models.ViewLogin, map[string]string{"error": errCode})
		return
	}
	if v1utils.OptionalPrincipal(r) != nil {
		http.Redirect(w, r, models.PageDashboard.Path(), http.StatusFound)
		return
	}

	state := uuid.New().String()
	verifier := oauth2.GenerateVerifier()
	h.setFlowCookie(w, stateCookieName, state, oauthCookieMaxAge)
	h.setFlowCookie(w, verifierCookieName, verifier, oauthCookieMaxAge)

	http.Redirect(w, r, h.provider.AuthCodeURL(state, verifier, h.sessions.Policy().Domain), http.StatusFound)
}

func (h *AuthHandler) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	query := r.URL.Query()
	state, err := r.Cookie(stateCookieName)
	if err != nil || state.Value == "" || state.Value != query.Get("state") {
		slog.Warn("OAuth callback rejected: state mismatch")
		http.Redirect(w, r, loginFailedPath, http.StatusFound)
		return
	}
	var verifier string
	if c, err := r.Cookie(verifierCookieName); err == nil {
		verifier = c.Value
	}
	h.setFlowCookie(w, stateCookieName, "", -1)
	h.setFlowCookie(w, verifierCookieName, "", -1)

	if query.Get("error") != "" || query.Get("code") == "" {
		slog.Warn("OAuth callback without code", "error", query.Get("error"))
		http.Redirect(w, r, loginFailedPath, http.StatusFound)
		return
	}

	session, err := h.sessions.CompleteOAuthExchange(r.Context(), query.Get("code"), verifier)
	if err != nil {
		if errors.HasCode(err, errors.CodeDomainMismatch) {
			http.Redirect(w, r, models.PageAuthError.Path(), http.StatusFound)
			return
		}
		http.Redirect(w, r, loginFailedPath, http.StatusFound)
		return
	}

	h.cookie.Set(w, session.ID)
	http.Redirect(w, r, models.PageDashboard.Path(), http.StatusFound)
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	sessionID := v1utils.GetSessionID(r.Context())
	if sessionID == "" {
		sessionID = h.cookie.Read(r)
	}
	if sessionID != "" {
		if err := h.sessions.SignOut(r.Context(), sessionID); err != nil {
			slog.Error("Failed to revoke session on logout", "error", err)
		}
	}

	h.cookie.Clear(w)
	http.Redirect(w, r, models.PageLogin.Path(), http.StatusFound)
}

func (h *AuthHandler) handleError(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	respondWithView(w, models.ViewAuthError, map[string]string{
		"allowedDomain": h.sessions.Policy().Domain,
	})
}

func (h *AuthHandler) setFlowCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/auth",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
