// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReqLoggerKey is the context key used to store request-scoped logger in gin context.
const ReqLoggerKey = "reqLogger"

// CredentialKindsKey holds the credential kinds collected by the credential middleware.
const CredentialKindsKey = "credentialKinds"

// GetReqLogger returns the request-scoped sugared logger from gin.Context if present,
// otherwise returns the provided fallback.
func GetReqLogger(c *gin.Context, fallback *zap.SugaredLogger) *zap.SugaredLogger {
	if c == nil {
		return fallback
	}
	if v, ok := c.Get(ReqLoggerKey); ok {
		if l, ok2 := v.(*zap.SugaredLogger); ok2 {
			return l
		}
	}
	return fallback
}

// EnrichReqLogger annotates the request-scoped logger with the credential kinds
// the request presented. Credential values are never logged.
func EnrichReqLogger(c *gin.Context, reqLogger *zap.SugaredLogger) *zap.SugaredLogger {
	if c == nil || reqLogger == nil {
		return reqLogger
	}
	if v, ok := c.Get(CredentialKindsKey); ok {
		if kinds, ok2 := v.([]string); ok2 && len(kinds) > 0 {
			reqLogger = reqLogger.With("credentials", kinds)
		}
	}
	return reqLogger
}

// RouteFields returns key/value pairs for logging a navigation request. The
// active path is only included when it differs from the route.
func RouteFields(route, activePath string) []interface{} {
	if activePath == "" || activePath == route {
		return []interface{}{"route", route}
	}
	return []interface{}{"route", route, "activePath", activePath}
}
