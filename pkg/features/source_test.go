package features

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telekom/infoasst-navshell/pkg/config"
	"go.uber.org/zap/zaptest"
)

func TestHTTPSourceFetch(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/getFeatureFlags", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ENABLE_MATH_ASSISTANT": true, "ENABLE_TABULAR_DATA_ASSISTANT": false}`))
	}))
	defer srv.Close()

	src := NewHTTPSource(zaptest.NewLogger(t).Sugar(), config.Backend{URL: srv.URL + "/"})
	flags, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, flags.Enabled(MathAssistant))
	assert.False(t, flags.Enabled(TabularDataAssistant))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestHTTPSourceFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			src := NewHTTPSource(nil, config.Backend{URL: srv.URL})
			flags, err := src.Fetch(context.Background())
			assert.Nil(t, flags)
			var fetchErr *FetchError
			require.True(t, errors.As(err, &fetchErr), "expected FetchError, got %v", err)
			assert.Equal(t, "/getFeatureFlags", fetchErr.Source)
		})
	}
}

func TestHTTPSourceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPSource(nil, config.Backend{URL: url, RequestTimeout: "200ms"}).Fetch(context.Background())
	var fetchErr *FetchError
	assert.True(t, errors.As(err, &fetchErr))
}

func TestHTTPSourceClientCredentials(t *testing.T) {
	var tokenCalls int32
	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"backend-token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer idp.Close()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer backend-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"ENABLE_TABULAR_DATA_ASSISTANT": true}`))
	}))
	defer backend.Close()

	src := NewHTTPSource(nil, config.Backend{
		URL: backend.URL,
		Auth: &config.ClientCredentials{
			TokenURL:     idp.URL,
			ClientID:     "navshell",
			ClientSecret: "secret",
		},
	})
	flags, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, flags.Enabled(TabularDataAssistant))
	assert.EqualValues(t, 1, atomic.LoadInt32(&tokenCalls))
}

func TestNewSourceSelection(t *testing.T) {
	cfg := config.Config{Features: config.Features{Static: map[string]bool{"ENABLE_MATH_ASSISTANT": true}}}
	src := NewSource(nil, cfg)
	require.IsType(t, &StaticSource{}, src)
	flags, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, flags.Enabled(MathAssistant))

	cfg.Backend.URL = "http://backend"
	assert.IsType(t, &HTTPSource{}, NewSource(nil, cfg))
}

func TestStaticSourceNilSnapshotIsKnownAllFalse(t *testing.T) {
	flags, err := NewStaticSource(nil).Fetch(context.Background())
	require.NoError(t, err)
	require.NotNil(t, flags)
	assert.Empty(t, flags.EnabledFeatures())
}
