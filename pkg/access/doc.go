// Package access decides whether the current viewer holds a content manager
// role. Resolvers verify credentials in process (JWKS-signed bearer tokens,
// OIDC ID tokens, App Service client principals or Keycloak role mappings)
// and every failure is reported as an error so callers can fail closed.
package access
