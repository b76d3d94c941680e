package access

import (
	"context"
	"fmt"
	"strings"

	"github.com/telekom/infoasst-navshell/pkg/config"
	"go.uber.org/zap"
)

// New builds the resolver selected by cfg.Resolver.
func New(ctx context.Context, log *zap.SugaredLogger, cfg config.Access) (Resolver, error) {
	switch strings.ToLower(cfg.Resolver) {
	case config.ResolverJWT:
		return NewJWTResolver(log, cfg)
	case config.ResolverOIDC:
		return NewOIDCResolver(ctx, log, cfg)
	case config.ResolverEasyAuth:
		return NewEasyAuthResolver(cfg.ContentManagerRoles, cfg.EasyAuth.RoleClaimType), nil
	case config.ResolverKeycloak:
		return NewKeycloakResolver(log, cfg), nil
	case config.ResolverNone, "":
		return NoneResolver{}, nil
	default:
		return nil, fmt.Errorf("unknown access resolver %q", cfg.Resolver)
	}
}
