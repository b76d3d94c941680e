// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/telekom/infoasst-navshell/pkg/access"
	"github.com/telekom/infoasst-navshell/pkg/config"
	"github.com/telekom/infoasst-navshell/pkg/system"
	"go.uber.org/zap"
)

const (
	AuthHeaderKey   = "Authorization"
	RequestIDHeader = "X-Request-ID"

	credentialsKey = "credentials"
)

// RequestLogger stores a request-scoped logger carrying the request ID. An
// incoming X-Request-ID is reused when it looks sane.
func RequestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Set(system.ReqLoggerKey, log.With("requestID", id))
		c.Next()
	}
}

// CredentialMiddleware collects whatever the request presents for the access
// check. It never rejects a request: missing or invalid credentials only hide
// the privileged navigation.
func CredentialMiddleware(log *zap.SugaredLogger, cfg config.Access) gin.HandlerFunc {
	cookieName := cfg.OIDC.CookieName
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		var cred access.Credentials

		authHeader := c.GetHeader(AuthHeaderKey)
		// delete the header to avoid logging it by accident
		c.Request.Header.Del(AuthHeaderKey)
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
			cred.BearerToken = strings.TrimSpace(authHeader[7:])
		}
		if cookieName != "" {
			if v, err := c.Cookie(cookieName); err == nil {
				cred.IDToken = v
			}
		}
		cred.ClientPrincipal = c.GetHeader(access.ClientPrincipalHeader)
		c.Request.Header.Del(access.ClientPrincipalHeader)

		c.Set(credentialsKey, cred)
		c.Set(system.CredentialKindsKey, credentialKinds(cred))
		c.Set(system.ReqLoggerKey, system.EnrichReqLogger(c, system.GetReqLogger(c, log)))
		c.Next()
	}
}

// CredentialsFrom returns the credentials collected by CredentialMiddleware.
func CredentialsFrom(c *gin.Context) access.Credentials {
	if v, ok := c.Get(credentialsKey); ok {
		if cred, ok2 := v.(access.Credentials); ok2 {
			return cred
		}
	}
	return access.Credentials{}
}

func credentialKinds(cred access.Credentials) []string {
	kinds := []string{}
	if cred.BearerToken != "" {
		kinds = append(kinds, "bearer")
	}
	if cred.IDToken != "" {
		kinds = append(kinds, "idToken")
	}
	if cred.ClientPrincipal != "" {
		kinds = append(kinds, "clientPrincipal")
	}
	return kinds
}
