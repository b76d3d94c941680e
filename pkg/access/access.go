// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Status is the tri-state outcome of an access lookup.
type Status int

const (
	Unknown Status = iota
	Granted
	Denied
)

func (s Status) String() string {
	switch s {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// FromResult maps a resolver result onto a Status. Any error is Denied.
func FromResult(granted bool, err error) Status {
	if err != nil || !granted {
		return Denied
	}
	return Granted
}

// ErrNoCredentials is returned when the request carries nothing the resolver can check.
var ErrNoCredentials = errors.New("no credentials presented")

// ResolutionError wraps failures of the underlying identity check.
type ResolutionError struct {
	Resolver string
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s access resolution failed: %v", e.Resolver, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

func resolutionError(resolver string, err error) error {
	return &ResolutionError{Resolver: resolver, Err: err}
}

// Credentials holds what the request presented for the identity check.
type Credentials struct {
	// BearerToken is the raw token from the Authorization header.
	BearerToken string
	// IDToken is the raw OIDC ID token from the session cookie.
	IDToken string
	// ClientPrincipal is the base64 X-MS-CLIENT-PRINCIPAL header value.
	ClientPrincipal string
}

// Empty reports whether no credential of any kind is present.
func (c Credentials) Empty() bool {
	return c.BearerToken == "" && c.IDToken == "" && c.ClientPrincipal == ""
}

// Resolver decides whether the viewer holds a content manager role.
type Resolver interface {
	Resolve(ctx context.Context, cred Credentials) (bool, error)
}

// Name returns a short label for r used in logs and metrics.
func Name(r Resolver) string {
	switch r.(type) {
	case *JWTResolver:
		return "jwt"
	case *OIDCResolver:
		return "oidc"
	case *EasyAuthResolver:
		return "easyauth"
	case *KeycloakResolver:
		return "keycloak"
	case NoneResolver:
		return "none"
	default:
		return "custom"
	}
}

// NoneResolver is used when no identity check is configured; nobody is granted.
type NoneResolver struct{}

func (NoneResolver) Resolve(context.Context, Credentials) (bool, error) {
	return false, nil
}

// NormalizeRoles strips leading slashes, reduces group paths to their final
// segment, trims whitespace and removes empties and duplicates.
func NormalizeRoles(roles []string) []string {
	if len(roles) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(roles))
	normalized := make([]string, 0, len(roles))
	for _, g := range roles {
		g = strings.TrimSpace(g)
		// Keycloak group path style: /team/role
		g = strings.TrimLeft(g, "/")
		if idx := strings.LastIndex(g, "/"); idx != -1 && idx < len(g)-1 {
			g = g[idx+1:]
		}
		if g == "" {
			continue
		}
		if _, exists := seen[g]; exists {
			continue
		}
		seen[g] = struct{}{}
		normalized = append(normalized, g)
	}
	return normalized
}

// HasAnyRole reports whether any of roles matches one of allowed, case-insensitively.
func HasAnyRole(roles, allowed []string) bool {
	for _, r := range NormalizeRoles(roles) {
		for _, a := range allowed {
			if strings.EqualFold(r, strings.TrimSpace(a)) {
				return true
			}
		}
	}
	return false
}

// RolesFromClaims collects role names from the "roles" and "groups" claims and
// from Keycloak's realm_access.roles.
func RolesFromClaims(claims map[string]interface{}) []string {
	var roles []string
	roles = append(roles, stringList(claims["roles"])...)
	roles = append(roles, stringList(claims["groups"])...)
	if rawRealm, ok := claims["realm_access"]; ok {
		if m, ok := rawRealm.(map[string]interface{}); ok {
			roles = append(roles, stringList(m["roles"])...)
		}
	}
	return NormalizeRoles(roles)
}

func stringList(v interface{}) []string {
	var out []string
	switch vals := v.(type) {
	case []interface{}:
		for _, v := range vals {
			if s, ok := v.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, vals...)
	case string:
		// single-valued claims are sometimes flattened to a string
		if vals != "" {
			out = append(out, vals)
		}
	}
	return out
}
