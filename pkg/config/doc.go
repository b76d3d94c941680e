// Package config handles server-side configuration loading from YAML files,
// .env files and NAVSHELL_* environment overrides. Identity provider
// identifiers are always injected here and never compiled into the service.
package config
