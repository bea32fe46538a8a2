// Package idp resolves the signed-in principal: it completes the OAuth code
// exchange, keeps sessions in Redis and enforces the email domain allow-list.
package idp

import (
	"strings"
)

// Principal is an authenticated identity issued by the identity provider
type Principal struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// DomainPolicy restricts sign-in to a single email domain
type DomainPolicy struct {
	Domain string
}

// NewDomainPolicy creates a policy for the given domain, with or without a leading "@"
func NewDomainPolicy(domain string) DomainPolicy {
	return DomainPolicy{Domain: strings.ToLower(strings.TrimPrefix(strings.TrimSpace(domain), "@"))}
}

// Allows reports whether the email belongs to the domain. Subdomains do not match.
func (p DomainPolicy) Allows(email string) bool {
	if p.Domain == "" {
		return false
	}
	email = strings.ToLower(strings.TrimSpace(email))
	suffix := "@" + p.Domain
	return strings.HasSuffix(email, suffix) && len(email) > len(suffix)
}
