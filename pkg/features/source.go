// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package features

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/telekom/infoasst-navshell/pkg/config"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"
)

// Source supplies feature flag snapshots.
type Source interface {
	Fetch(ctx context.Context) (*Flags, error)
}

// FetchError wraps any failure to obtain a snapshot.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching feature flags from %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StaticSource always returns the same snapshot.
type StaticSource struct {
	flags *Flags
}

func NewStaticSource(flags *Flags) *StaticSource {
	if flags == nil {
		flags = NewFlags(nil)
	}
	return &StaticSource{flags: flags}
}

func (s *StaticSource) Fetch(context.Context) (*Flags, error) {
	return s.flags, nil
}

// HTTPSource reads the flags from the assistant backend.
type HTTPSource struct {
	client *resty.Client
	path   string
	log    *zap.SugaredLogger
}

// NewHTTPSource builds a source for cfg. When cfg.Auth is set, requests carry
// an OAuth2 client credentials token.
func NewHTTPSource(log *zap.SugaredLogger, cfg config.Backend) *HTTPSource {
	var client *resty.Client
	if cfg.Auth != nil {
		cc := &clientcredentials.Config{
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
			TokenURL:     cfg.Auth.TokenURL,
			Scopes:       cfg.Auth.Scopes,
		}
		client = resty.NewWithClient(cc.Client(context.Background()))
	} else {
		client = resty.New()
	}
	client.
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetTimeout(config.Duration(cfg.RequestTimeout, 5*time.Second)).
		SetHeader("Accept", "application/json")

	path := cfg.FeatureFlagsPath
	if path == "" {
		path = "/getFeatureFlags"
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &HTTPSource{client: client, path: path, log: log}
}

func (s *HTTPSource) Fetch(ctx context.Context) (*Flags, error) {
	start := time.Now()
	resp, err := s.client.R().SetContext(ctx).Get(s.path)
	if err != nil {
		return nil, &FetchError{Source: s.path, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &FetchError{Source: s.path, Err: fmt.Errorf("unexpected status %d", resp.StatusCode())}
	}
	flags, err := ParseFlags(resp.Body())
	if err != nil {
		return nil, &FetchError{Source: s.path, Err: err}
	}
	s.log.Debugw("Fetched feature flags", "path", s.path, "enabled", flags.EnabledFeatures(), "took", time.Since(start).String())
	return flags, nil
}

// NewSource picks the HTTP source when a backend is configured and the static
// flags from configuration otherwise.
func NewSource(log *zap.SugaredLogger, cfg config.Config) Source {
	if cfg.Backend.URL != "" {
		return NewHTTPSource(log, cfg.Backend)
	}
	return NewStaticSource(FromStrings(cfg.Features.Static))
}
