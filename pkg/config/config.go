// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	// ConfigPathEnv overrides the default configuration file location.
	ConfigPathEnv = "NAVSHELL_CONFIG_PATH"

	defaultConfigPath = "./config.yaml"
)

// Resolver names accepted in access.resolver.
const (
	ResolverJWT      = "jwt"
	ResolverOIDC     = "oidc"
	ResolverEasyAuth = "easyauth"
	ResolverKeycloak = "keycloak"
	ResolverNone     = "none"
)

type Server struct {
	ListenAddress  string   `yaml:"listenAddress"`
	TLSCertFile    string   `yaml:"tlsCertFile"`
	TLSKeyFile     string   `yaml:"tlsKeyFile"`
	TrustedProxies []string `yaml:"trustedProxies"` // IPs/CIDRS to trust for X-Forwarded-For headers
	// MountTimeout bounds how long a page request waits for the navigation
	// lookups before rendering whatever has resolved so far (e.g. "3s").
	MountTimeout string `yaml:"mountTimeout"`
	// ShutdownTimeout bounds graceful shutdown (e.g. "10s").
	ShutdownTimeout   string `yaml:"shutdownTimeout"`
	ReadHeaderTimeout string `yaml:"readHeaderTimeout"`
	IdleTimeout       string `yaml:"idleTimeout"`
}

// Server timeout defaults, used when the configured value is empty or invalid.
const (
	DefaultMountTimeout      = 3 * time.Second
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
)

func (s Server) GetMountTimeout() time.Duration {
	return Duration(s.MountTimeout, DefaultMountTimeout)
}

func (s Server) GetShutdownTimeout() time.Duration {
	return Duration(s.ShutdownTimeout, DefaultShutdownTimeout)
}

func (s Server) GetReadHeaderTimeout() time.Duration {
	return Duration(s.ReadHeaderTimeout, DefaultReadHeaderTimeout)
}

func (s Server) GetIdleTimeout() time.Duration {
	return Duration(s.IdleTimeout, DefaultIdleTimeout)
}

type Frontend struct {
	// Title is the product name shown in the header.
	Title   string `yaml:"title"`
	LogoURL string `yaml:"logoURL"`
	// WarningBanner is shown above the header and in the footer. Empty hides it.
	WarningBanner string `yaml:"warningBanner"`
	// StaticDir holds the built single page application served for unknown routes.
	StaticDir string `yaml:"staticDir"`
	// EntryScript is the module script of the routed page bundle, e.g. "/assets/index.js".
	EntryScript string `yaml:"entryScript"`
	// LoadingPlaceholder renders "Waiting for Authentication..." instead of the
	// navigation while the access lookup is still unresolved.
	LoadingPlaceholder bool `yaml:"loadingPlaceholder"`

	// Identity provider settings handed to the browser via /api/config.
	OIDCAuthority         string   `yaml:"oidcAuthority"`
	OIDCClientID          string   `yaml:"oidcClientID"`
	OIDCScopes            []string `yaml:"oidcScopes"`
	RedirectURI           string   `yaml:"redirectURI"`
	PostLogoutRedirectURI string   `yaml:"postLogoutRedirectURI"`
}

// ClientCredentials configures OAuth2 client credentials used when calling the backend.
type ClientCredentials struct {
	TokenURL     string   `yaml:"tokenURL"`
	ClientID     string   `yaml:"clientID"`
	ClientSecret string   `yaml:"clientSecret"`
	Scopes       []string `yaml:"scopes"`
}

type Backend struct {
	// URL of the assistant backend exposing the feature flag endpoint. When empty
	// the static flags from Features are used.
	URL              string             `yaml:"url"`
	FeatureFlagsPath string             `yaml:"featureFlagsPath"`
	RequestTimeout   string             `yaml:"requestTimeout"`
	Auth             *ClientCredentials `yaml:"auth"`
}

type Features struct {
	Static map[string]bool `yaml:"static"`
}

type JWT struct {
	// JWKSURL is the full URL of the signing key set.
	JWKSURL              string `yaml:"jwksURL"`
	Issuer               string `yaml:"issuer"`
	Audience             string `yaml:"audience"`
	CertificateAuthority string `yaml:"certificateAuthority"`
	InsecureSkipVerify   bool   `yaml:"insecureSkipVerify"`
}

type OIDC struct {
	Issuer   string `yaml:"issuer"`
	ClientID string `yaml:"clientID"`
	// CookieName carries the ID token when no bearer token is sent.
	CookieName string `yaml:"cookieName"`
}

type EasyAuth struct {
	// RoleClaimType is the claim type carrying app roles in the client principal.
	RoleClaimType string `yaml:"roleClaimType"`
}

type Keycloak struct {
	BaseURL        string `yaml:"baseURL"`
	Realm          string `yaml:"realm"`
	ClientID       string `yaml:"clientID"`
	ClientSecret   string `yaml:"clientSecret"`
	CacheTTL       string `yaml:"cacheTTL"`
	RequestTimeout string `yaml:"requestTimeout"`
}

type Access struct {
	// Resolver selects how the content manager role is checked:
	// jwt, oidc, easyauth, keycloak or none.
	Resolver string `yaml:"resolver"`
	// ContentManagerRoles grant the "Manage Content" link; any match is enough.
	ContentManagerRoles []string `yaml:"contentManagerRoles"`
	JWT                 JWT      `yaml:"jwt"`
	OIDC                OIDC     `yaml:"oidc"`
	EasyAuth            EasyAuth `yaml:"easyAuth"`
	Keycloak            Keycloak `yaml:"keycloak"`
}

// RateLimit bounds page and navigation requests per client IP.
type RateLimit struct {
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`
	// IdleExpiry drops a client's bucket after this long without requests (e.g. "5m").
	IdleExpiry string `yaml:"idleExpiry"`
}

type Config struct {
	Server    Server    `yaml:"server"`
	Frontend  Frontend  `yaml:"frontend"`
	Backend   Backend   `yaml:"backend"`
	Features  Features  `yaml:"features"`
	Access    Access    `yaml:"access"`
	RateLimit RateLimit `yaml:"rateLimit"`
}

// Load loads the navshell configuration from a file path.
// If configPath is empty, NAVSHELL_CONFIG_PATH is consulted, then "./config.yaml".
// A .env file in the working directory is loaded first when present, and
// NAVSHELL_* variables override secrets from the file.
func Load(configPath ...string) (Config, error) {
	var config Config

	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	path := defaultConfigPath
	if len(configPath) > 0 && configPath[0] != "" {
		path = configPath[0]
	} else if env := os.Getenv(ConfigPathEnv); env != "" {
		path = env
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("trying to open navshell config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(content, &config); err != nil {
		return config, fmt.Errorf("error unmarshaling YAML %s: %w", path, err)
	}

	config.applyEnv()
	config.Defaults()
	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid navshell config %s: %w", path, err)
	}
	return config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("NAVSHELL_BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("NAVSHELL_BACKEND_CLIENT_SECRET"); v != "" && c.Backend.Auth != nil {
		c.Backend.Auth.ClientSecret = v
	}
	if v := os.Getenv("NAVSHELL_KEYCLOAK_CLIENT_SECRET"); v != "" {
		c.Access.Keycloak.ClientSecret = v
	}
	if v := os.Getenv("NAVSHELL_LISTEN_ADDRESS"); v != "" {
		c.Server.ListenAddress = v
	}
}

// Defaults fills unset values.
func (c *Config) Defaults() {
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = ":8080"
	}
	if c.Server.MountTimeout == "" {
		c.Server.MountTimeout = "3s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.Frontend.Title == "" {
		c.Frontend.Title = "Information Assistant"
	}
	if c.Frontend.LogoURL == "" {
		c.Frontend.LogoURL = "/assets/logo.svg"
	}
	if c.Frontend.StaticDir == "" {
		c.Frontend.StaticDir = "./frontend/dist/"
	}
	if c.Backend.FeatureFlagsPath == "" {
		c.Backend.FeatureFlagsPath = "/getFeatureFlags"
	}
	if c.Backend.RequestTimeout == "" {
		c.Backend.RequestTimeout = "5s"
	}
	if c.Access.Resolver == "" {
		c.Access.Resolver = ResolverNone
	}
	if len(c.Access.ContentManagerRoles) == 0 {
		c.Access.ContentManagerRoles = []string{"ContentManager"}
	}
	if c.Access.OIDC.CookieName == "" {
		c.Access.OIDC.CookieName = "id_token"
	}
	if c.Access.EasyAuth.RoleClaimType == "" {
		c.Access.EasyAuth.RoleClaimType = "roles"
	}
	if c.Access.Keycloak.CacheTTL == "" {
		c.Access.Keycloak.CacheTTL = "5m"
	}
	if c.Access.Keycloak.RequestTimeout == "" {
		c.Access.Keycloak.RequestTimeout = "10s"
	}
	if c.RateLimit.Rate == 0 {
		c.RateLimit.Rate = 20
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 50
	}
}

// Validate reports configuration that cannot produce a working shell.
func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Access.Resolver) {
	case "", ResolverNone, ResolverEasyAuth:
	case ResolverJWT:
		if c.Access.JWT.JWKSURL == "" {
			errs = append(errs, errors.New("access.jwt.jwksURL is required for the jwt resolver"))
		}
	case ResolverOIDC:
		if c.Access.OIDC.Issuer == "" || c.Access.OIDC.ClientID == "" {
			errs = append(errs, errors.New("access.oidc.issuer and access.oidc.clientID are required for the oidc resolver"))
		}
	case ResolverKeycloak:
		k := c.Access.Keycloak
		if k.BaseURL == "" || k.Realm == "" || k.ClientID == "" || k.ClientSecret == "" {
			errs = append(errs, errors.New("access.keycloak baseURL, realm, clientID and clientSecret are required for the keycloak resolver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown access.resolver %q", c.Access.Resolver))
	}
	if a := c.Backend.Auth; a != nil && (a.TokenURL == "" || a.ClientID == "") {
		errs = append(errs, errors.New("backend.auth requires tokenURL and clientID"))
	}
	for _, d := range []struct{ name, value string }{
		{"server.mountTimeout", c.Server.MountTimeout},
		{"server.shutdownTimeout", c.Server.ShutdownTimeout},
		{"server.readHeaderTimeout", c.Server.ReadHeaderTimeout},
		{"server.idleTimeout", c.Server.IdleTimeout},
		{"backend.requestTimeout", c.Backend.RequestTimeout},
		{"access.keycloak.cacheTTL", c.Access.Keycloak.CacheTTL},
		{"access.keycloak.requestTimeout", c.Access.Keycloak.RequestTimeout},
		{"rateLimit.idleExpiry", c.RateLimit.IdleExpiry},
	} {
		if d.value == "" {
			continue
		}
		if _, err := time.ParseDuration(d.value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.name, err))
		}
	}
	return errors.Join(errs...)
}

// Duration parses a duration field, falling back to def when unset or invalid.
func Duration(value string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	return def
}
