package access

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telekom/infoasst-navshell/pkg/config"
)

func TestStatusString(t *testing.T) {
	assert.Equal(t, "unknown", Unknown.String())
	assert.Equal(t, "granted", Granted.String())
	assert.Equal(t, "denied", Denied.String())

	text, err := Granted.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "granted", string(text))
}

func TestFromResultFailsClosed(t *testing.T) {
	assert.Equal(t, Granted, FromResult(true, nil))
	assert.Equal(t, Denied, FromResult(false, nil))
	// an error always denies, even if the resolver claimed success
	assert.Equal(t, Denied, FromResult(true, errors.New("boom")))
	assert.Equal(t, FromResult(false, nil), FromResult(false, errors.New("boom")))
}

func TestResolutionErrorUnwraps(t *testing.T) {
	err := resolutionError("jwt", ErrNoCredentials)
	assert.True(t, errors.Is(err, ErrNoCredentials))
	var resErr *ResolutionError
	require.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &resErr))
	assert.Equal(t, "jwt", resErr.Resolver)
	assert.Contains(t, err.Error(), "no credentials presented")
}

func TestCredentialsEmpty(t *testing.T) {
	assert.True(t, Credentials{}.Empty())
	assert.False(t, Credentials{BearerToken: "x"}.Empty())
	assert.False(t, Credentials{IDToken: "x"}.Empty())
	assert.False(t, Credentials{ClientPrincipal: "x"}.Empty())
}

func TestNormalizeRoles(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "nil", in: nil, want: nil},
		{name: "group paths", in: []string{"/team/admin", " /space/ops ", ""}, want: []string{"admin", "ops"}},
		{name: "duplicates", in: []string{"team/user", "/team/user", "user"}, want: []string{"user"}},
		{name: "nested", in: []string{"/a/b/c", "//c"}, want: []string{"c"}},
		{name: "trailing slash kept as segment", in: []string{"admins/"}, want: []string{"admins/"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeRoles(tc.in))
		})
	}
}

func TestHasAnyRole(t *testing.T) {
	allowed := []string{"ContentManager", "Admin"}
	assert.True(t, HasAnyRole([]string{"reader", "contentmanager"}, allowed))
	assert.True(t, HasAnyRole([]string{"/org/Admin"}, allowed))
	assert.False(t, HasAnyRole([]string{"reader"}, allowed))
	assert.False(t, HasAnyRole(nil, allowed))
	assert.False(t, HasAnyRole([]string{"Admin"}, nil))
}

func TestRolesFromClaims(t *testing.T) {
	claims := map[string]interface{}{
		"roles":        []interface{}{"ContentManager", 42},
		"groups":       []string{"/team/ops"},
		"realm_access": map[string]interface{}{"roles": []interface{}{"offline_access"}},
	}
	assert.ElementsMatch(t, []string{"ContentManager", "ops", "offline_access"}, RolesFromClaims(claims))

	assert.Equal(t, []string{"solo"}, RolesFromClaims(map[string]interface{}{"roles": "solo"}))
	assert.Nil(t, RolesFromClaims(map[string]interface{}{"sub": "x"}))
}

func TestNoneResolverDenies(t *testing.T) {
	granted, err := NoneResolver{}.Resolve(context.Background(), Credentials{BearerToken: "anything"})
	assert.NoError(t, err)
	assert.False(t, granted)
}

func TestNewSelectsResolver(t *testing.T) {
	ctx := context.Background()

	r, err := New(ctx, nil, config.Access{Resolver: config.ResolverNone})
	require.NoError(t, err)
	assert.Equal(t, "none", Name(r))

	r, err = New(ctx, nil, config.Access{Resolver: "EasyAuth"})
	require.NoError(t, err)
	assert.Equal(t, "easyauth", Name(r))

	r, err = New(ctx, nil, config.Access{Resolver: config.ResolverKeycloak, Keycloak: config.Keycloak{BaseURL: "http://kc", Realm: "r"}})
	require.NoError(t, err)
	assert.Equal(t, "keycloak", Name(r))

	_, err = New(ctx, nil, config.Access{Resolver: "shell"})
	assert.Error(t, err)
}

type customResolver struct{}

func (customResolver) Resolve(context.Context, Credentials) (bool, error) { return true, nil }

func TestNameOfCustomResolver(t *testing.T) {
	assert.Equal(t, "custom", Name(customResolver{}))
}
