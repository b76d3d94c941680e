package access

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// ClientPrincipalHeader is set by the App Service authentication layer after
// it has validated the user's session. Only trust it behind that layer.
const ClientPrincipalHeader = "X-MS-CLIENT-PRINCIPAL"

type principalClaim struct {
	Type  string `json:"typ"`
	Value string `json:"val"`
}

type clientPrincipal struct {
	AuthType string           `json:"auth_typ"`
	NameType string           `json:"name_typ"`
	RoleType string           `json:"role_typ"`
	Claims   []principalClaim `json:"claims"`
}

// EasyAuthResolver reads app roles from the platform-injected client principal.
type EasyAuthResolver struct {
	roles     []string
	claimType string
}

func NewEasyAuthResolver(roles []string, claimType string) *EasyAuthResolver {
	if claimType == "" {
		claimType = "roles"
	}
	return &EasyAuthResolver{roles: roles, claimType: claimType}
}

func (r *EasyAuthResolver) Resolve(_ context.Context, cred Credentials) (bool, error) {
	if cred.ClientPrincipal == "" {
		return false, resolutionError("easyauth", ErrNoCredentials)
	}
	p, err := decodeClientPrincipal(cred.ClientPrincipal)
	if err != nil {
		return false, resolutionError("easyauth", err)
	}

	var roles []string
	for _, c := range p.Claims {
		if strings.EqualFold(c.Type, r.claimType) || (p.RoleType != "" && c.Type == p.RoleType) {
			roles = append(roles, c.Value)
		}
	}
	return HasAnyRole(roles, r.roles), nil
}

func decodeClientPrincipal(header string) (*clientPrincipal, error) {
	data, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		// tolerate unpadded encodings
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(header, "="))
		if err != nil {
			return nil, fmt.Errorf("decoding client principal: %w", err)
		}
	}
	var p clientPrincipal
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing client principal: %w", err)
	}
	return &p, nil
}
