// Package api implements the HTTP server (Gin-based) of the navigation shell:
// the navigation view, rendered layout pages, frontend configuration, build
// info, metrics and the SPA fallback.
package api
