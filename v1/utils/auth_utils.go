package utils

import (
	"context"
	"fmt"
	"net/http"

	"github.com/akpsi-umich/portal-backend/idp"
)

// AuthContextKey is the key used to store authentication context in request context
type AuthContextKey string

const (
	AuthContextKeyPrincipal AuthContextKey = "authenticated_principal"
	AuthContextKeySession   AuthContextKey = "session_id"
)

// GetPrincipal retrieves the authenticated principal from request context
func GetPrincipal(ctx context.Context) (*idp.Principal, error) {
	principal, ok := ctx.Value(AuthContextKeyPrincipal).(*idp.Principal)
	if !ok || principal == nil {
		return nil, fmt.Errorf("no authenticated principal found in context")
	}
	return principal, nil
}

// SetPrincipal sets the authenticated principal in request context
func SetPrincipal(ctx context.Context, principal *idp.Principal) context.Context {
	return context.WithValue(ctx, AuthContextKeyPrincipal, principal)
}

// GetSessionID returns the session id resolved for this request
func GetSessionID(ctx context.Context) string {
	id, _ := ctx.Value(AuthContextKeySession).(string)
	return id
}

// SetSessionID stores the resolved session id in request context
func SetSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, AuthContextKeySession, id)
}

// RequirePrincipal is a helper that returns the principal or an error when the request is anonymous
func RequirePrincipal(r *http.Request) (*idp.Principal, error) {
	return GetPrincipal(r.Context())
}

// OptionalPrincipal returns the principal or nil
func OptionalPrincipal(r *http.Request) *idp.Principal {
	principal, err := GetPrincipal(r.Context())
	if err != nil {
		return nil
	}
	return principal
}
