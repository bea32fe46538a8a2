package idp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	apierrors "github.com/akpsi-umich/portal-backend/pkg/errors"
	"github.com/akpsi-umich/portal-backend/pkg/monitoring"
	"github.com/akpsi-umich/portal-backend/shared/audit"
)

// Exchanger trades an authorization code for the identity it was issued to
type Exchanger interface {
	Exchange(ctx context.Context, code, verifier string) (Principal, error)
}

// Adapter is the application's single view of the identity provider
type Adapter struct {
	exchanger Exchanger
	sessions  SessionStore
	policy    DomainPolicy
	auditor   audit.Auditor
}

// NewAdapter creates an identity provider adapter
func NewAdapter(exchanger Exchanger, sessions SessionStore, policy DomainPolicy, auditor audit.Auditor) *Adapter {
	if auditor == nil {
		auditor = audit.NoopAuditor{}
	}
	return &Adapter{exchanger: exchanger, sessions: sessions, policy: policy, auditor: auditor}
}

// Policy returns the domain allow-list
func (a *Adapter) Policy() DomainPolicy {
	return a.policy
}

// CompleteOAuthExchange exchanges the code and opens a session. No session is
// created for a principal outside the allowed domain.
func (a *Adapter) CompleteOAuthExchange(ctx context.Context, code, verifier string) (*Session, error) {
	if code == "" {
		return nil, apierrors.UnauthorizedError(apierrors.CodeAuthFailed, "Missing authorization code")
	}

	start := time.Now()
	principal, err := a.exchanger.Exchange(ctx, code, verifier)
	monitoring.RecordExternalCall(ctx, "identity_provider", "exchange", time.Since(start), err)
	if err != nil {
		slog.Warn("OAuth code exchange failed", "error", err)
		return nil, apierrors.NewAPIErrorWithCause(apierrors.ErrorTypeUnauthorized, apierrors.CodeAuthFailed,
			"Authentication failed", http.StatusUnauthorized, err)
	}

	if !a.policy.Allows(principal.Email) {
		slog.Warn("Sign-in rejected by domain policy", "user_id", principal.ID, "domain", a.policy.Domain)
		audit.Record(ctx, a.auditor, audit.ActionSignIn, principal.ID, "session", "", errors.New("domain mismatch"), nil)
		return nil, apierrors.UnauthorizedError(apierrors.CodeDomainMismatch,
			"Please sign in with your @"+a.policy.Domain+" account")
	}

	session, err := a.sessions.Create(ctx, principal)
	if err != nil {
		slog.Error("Failed to create session", "user_id", principal.ID, "error", err)
		return nil, apierrors.InternalErrorWithCause("Failed to create session", err)
	}

	slog.Info("Principal signed in", "user_id", principal.ID)
	audit.Record(ctx, a.auditor, audit.ActionSignIn, principal.ID, "session", session.ID, nil, nil)
	return session, nil
}

// ResolveSession returns the principal behind a session id. The domain is
// re-checked on every call and a failing session is revoked.
func (a *Adapter) ResolveSession(ctx context.Context, sessionID string) (*Principal, error) {
	session, err := a.sessions.Resolve(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, apierrors.UnauthorizedError(apierrors.CodeUnauthenticated, "Not signed in")
	}
	if err != nil {
		return nil, apierrors.NetworkError("resolve session", err)
	}

	if !a.policy.Allows(session.Principal.Email) {
		slog.Warn("Session failed domain re-validation; signing out", "user_id", session.Principal.ID)
		if revokeErr := a.sessions.Revoke(ctx, sessionID); revokeErr != nil {
			slog.Error("Failed to revoke session", "user_id", session.Principal.ID, "error", revokeErr)
		}
		audit.Record(ctx, a.auditor, audit.ActionForcedSignOut, session.Principal.ID, "session", sessionID, nil, nil)
		return nil, apierrors.UnauthorizedError(apierrors.CodeDomainMismatch, "Account is not in the allowed domain")
	}

	principal := session.Principal
	return &principal, nil
}

// SignOut ends the session
func (a *Adapter) SignOut(ctx context.Context, sessionID string) error {
	if err := a.sessions.Revoke(ctx, sessionID); err != nil {
		return apierrors.NetworkError("revoke session", err)
	}
	return nil
}
