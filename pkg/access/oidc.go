package access

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/telekom/infoasst-navshell/pkg/config"
	"go.uber.org/zap"
)

// OIDCResolver verifies an OIDC ID token issued to the web client and checks its role claims.
type OIDCResolver struct {
	verifier *oidc.IDTokenVerifier
	roles    []string
	log      *zap.SugaredLogger
}

// NewOIDCResolver runs provider discovery against cfg.OIDC.Issuer.
func NewOIDCResolver(ctx context.Context, log *zap.SugaredLogger, cfg config.Access) (*OIDCResolver, error) {
	provider, err := oidc.NewProvider(ctx, cfg.OIDC.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider %s: %w", cfg.OIDC.Issuer, err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.OIDC.ClientID})
	return NewOIDCResolverWithVerifier(log, verifier, cfg.ContentManagerRoles), nil
}

// NewOIDCResolverWithVerifier uses an already configured verifier.
func NewOIDCResolverWithVerifier(log *zap.SugaredLogger, verifier *oidc.IDTokenVerifier, roles []string) *OIDCResolver {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &OIDCResolver{verifier: verifier, roles: roles, log: log}
}

func (r *OIDCResolver) Resolve(ctx context.Context, cred Credentials) (bool, error) {
	raw := cred.IDToken
	if raw == "" {
		// SPAs sometimes send the ID token as bearer
		raw = cred.BearerToken
	}
	if raw == "" {
		return false, resolutionError("oidc", ErrNoCredentials)
	}

	token, err := r.verifier.Verify(ctx, raw)
	if err != nil {
		return false, resolutionError("oidc", err)
	}
	claims := map[string]interface{}{}
	if err := token.Claims(&claims); err != nil {
		return false, resolutionError("oidc", fmt.Errorf("decoding ID token claims: %w", err))
	}

	roles := RolesFromClaims(claims)
	r.log.Debugw("Verified ID token", "sub", token.Subject, "roleCount", len(roles))
	return HasAnyRole(roles, r.roles), nil
}
