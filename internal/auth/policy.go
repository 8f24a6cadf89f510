package auth

import (
	"net/http"
	"strings"
)

// Policy determines required roles by request.
type Policy struct {
	ExemptPaths map[string]struct{}
}

// NewDefaultPolicy builds a default policy with exemptions.
func NewDefaultPolicy(exemptPaths []string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set}
}

// IsExempt returns true when a request should skip auth/RBAC.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	_, ok := p.ExemptPaths[r.URL.Path]
	return ok
}

// RequiredRole resolves the required role for the request.
func (p Policy) RequiredRole(r *http.Request) (Role, bool) {
	if r == nil {
		return "", false
	}
	path := r.URL.Path

	switch {
	case path == "/api/v1/weather/seed":
		return RoleAdmin, true
	case path == "/api/v1/jobs/evaluate-alerts":
		return RoleOperator, true
	case path == "/api/v1/jobs/stats":
		return RoleOperator, true
	case strings.HasPrefix(path, "/api/v1/notifications/export."):
		return RoleOperator, true
	case strings.HasPrefix(path, "/api/v1/notifications/") && strings.HasSuffix(path, "/deliver"):
		return RoleService, true
	}

	if strings.HasPrefix(path, "/api/") {
		return RoleFarmer, true
	}
	return "", false
}
