package access

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
	"github.com/telekom/infoasst-navshell/pkg/config"
	"go.uber.org/zap"
)

// JWTResolver verifies bearer tokens against a JWKS endpoint and checks the
// role claims of the verified token.
type JWTResolver struct {
	jwks     *keyfunc.JWKS
	roles    []string
	issuer   string
	audience string
	log      *zap.SugaredLogger
}

// NewJWTResolver fetches the signing keys once and keeps them refreshed in the background.
func NewJWTResolver(log *zap.SugaredLogger, cfg config.Access) (*JWTResolver, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	options := keyfunc.Options{
		RefreshInterval: time.Hour,
		RefreshTimeout:  time.Second * 10,
		RefreshErrorHandler: func(err error) {
			log.Errorf("failed to refresh JWKS configuration: %v", err)
		},
	}

	// TLS handling for JWKS fetch:
	// 1. If a CA PEM is provided, use it (strict validation).
	// 2. Else if InsecureSkipVerify is explicitly enabled, skip validation (dev/e2e only).
	// 3. Else rely on system roots.
	if cfg.JWT.CertificateAuthority != "" {
		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM([]byte(cfg.JWT.CertificateAuthority)); !ok {
			return nil, errors.New("could not parse access.jwt.certificateAuthority PEM")
		}
		options.Client = &http.Client{Transport: &http.Transport{TLSClientConfig: &tls.Config{RootCAs: pool}}}
	} else if cfg.JWT.InsecureSkipVerify {
		options.Client = &http.Client{Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}}
		log.Warn("access.jwt.insecureSkipVerify=true: TLS certificate verification is DISABLED (dev/e2e only)")
	}

	jwks, err := keyfunc.Get(cfg.JWT.JWKSURL, options)
	if err != nil {
		return nil, fmt.Errorf("could not get JWKS from %s: %w", cfg.JWT.JWKSURL, err)
	}
	return newJWTResolver(log, jwks, cfg), nil
}

func newJWTResolver(log *zap.SugaredLogger, jwks *keyfunc.JWKS, cfg config.Access) *JWTResolver {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &JWTResolver{
		jwks:     jwks,
		roles:    cfg.ContentManagerRoles,
		issuer:   cfg.JWT.Issuer,
		audience: cfg.JWT.Audience,
		log:      log,
	}
}

func (r *JWTResolver) Resolve(ctx context.Context, cred Credentials) (bool, error) {
	if cred.BearerToken == "" {
		return false, resolutionError("jwt", ErrNoCredentials)
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(cred.BearerToken, &claims, r.jwks.Keyfunc)
	if errors.Is(err, keyfunc.ErrKIDNotFound) {
		// signing key rotated since the last refresh; retry once with fresh keys
		if rErr := r.jwks.Refresh(ctx, keyfunc.RefreshOptions{}); rErr == nil {
			claims = jwt.MapClaims{}
			_, err = jwt.ParseWithClaims(cred.BearerToken, &claims, r.jwks.Keyfunc)
		}
	}
	if err != nil {
		return false, resolutionError("jwt", err)
	}
	if r.issuer != "" && !claims.VerifyIssuer(r.issuer, true) {
		return false, resolutionError("jwt", fmt.Errorf("unexpected issuer %v", claims["iss"]))
	}
	if r.audience != "" && !claims.VerifyAudience(r.audience, true) {
		return false, resolutionError("jwt", errors.New("token not issued for this audience"))
	}

	roles := RolesFromClaims(claims)
	if len(roles) == 0 {
		r.log.Debugw("JWT verified but carries no roles", "sub", claims["sub"])
	}
	return HasAnyRole(roles, r.roles), nil
}

// Close stops the background key refresh.
func (r *JWTResolver) Close() {
	if r.jwks != nil {
		r.jwks.EndBackground()
	}
}
