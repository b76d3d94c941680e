package access

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Nerzal/gocloak/v13"
	"github.com/telekom/infoasst-navshell/pkg/config"
	"go.uber.org/zap"
)

// KeycloakResolver asks Keycloak who the bearer token belongs to and then
// reads that user's realm roles with a service account.
type KeycloakResolver struct {
	client       *gocloak.GoCloak
	realm        string
	clientID     string
	clientSecret string
	roles        []string
	cache        *roleCache
	log          *zap.SugaredLogger
}

type roleCache struct {
	mu    sync.Mutex
	items map[string]roleEntry
	ttl   time.Duration
}

type roleEntry struct {
	roles   []string
	expires time.Time
}

func newRoleCache(ttl time.Duration) *roleCache {
	return &roleCache{items: map[string]roleEntry{}, ttl: ttl}
}

func (c *roleCache) get(k string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[k]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expires) {
		delete(c.items, k)
		return nil, false
	}
	return append([]string(nil), e.roles...), true
}

func (c *roleCache) set(k string, v []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for key, e := range c.items {
		if now.After(e.expires) {
			delete(c.items, key)
		}
	}
	c.items[k] = roleEntry{roles: append([]string(nil), v...), expires: now.Add(c.ttl)}
}

func (c *roleCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func NewKeycloakResolver(log *zap.SugaredLogger, cfg config.Access) *KeycloakResolver {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	client := gocloak.NewClient(cfg.Keycloak.BaseURL)
	client.RestyClient().SetTimeout(config.Duration(cfg.Keycloak.RequestTimeout, 10*time.Second))
	return &KeycloakResolver{
		client:       client,
		realm:        cfg.Keycloak.Realm,
		clientID:     cfg.Keycloak.ClientID,
		clientSecret: cfg.Keycloak.ClientSecret,
		roles:        cfg.ContentManagerRoles,
		cache:        newRoleCache(config.Duration(cfg.Keycloak.CacheTTL, 5*time.Minute)),
		log:          log,
	}
}

func (k *KeycloakResolver) Resolve(ctx context.Context, cred Credentials) (bool, error) {
	if cred.BearerToken == "" {
		return false, resolutionError("keycloak", ErrNoCredentials)
	}

	// userinfo only answers for tokens Keycloak itself considers valid
	info, err := k.client.GetUserInfo(ctx, cred.BearerToken, k.realm)
	if err != nil {
		return false, resolutionError("keycloak", fmt.Errorf("userinfo: %w", err))
	}
	sub := gocloak.PString(info.Sub)
	if sub == "" {
		return false, resolutionError("keycloak", errors.New("userinfo returned no subject"))
	}

	if roles, ok := k.cache.get(sub); ok {
		k.log.Debugw("Keycloak role cache hit", "sub", sub, "roleCount", len(roles))
		return HasAnyRole(roles, k.roles), nil
	}

	start := time.Now()
	admin, err := k.client.LoginClient(ctx, k.clientID, k.clientSecret, k.realm)
	if err != nil {
		return false, resolutionError("keycloak", fmt.Errorf("service account login: %w", err))
	}
	mappings, err := k.client.GetRealmRolesByUserID(ctx, admin.AccessToken, k.realm, sub)
	if err != nil {
		return false, resolutionError("keycloak", fmt.Errorf("realm roles for %s: %w", sub, err))
	}
	roles := make([]string, 0, len(mappings))
	for _, m := range mappings {
		if m != nil {
			roles = append(roles, gocloak.PString(m.Name))
		}
	}
	roles = NormalizeRoles(roles)
	k.cache.set(sub, roles)
	k.log.Debugw("Loaded Keycloak realm roles", "sub", sub, "roleCount", len(roles), "took", time.Since(start).String())
	return HasAnyRole(roles, k.roles), nil
}
