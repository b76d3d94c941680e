// Package apiresponses provides the standardized JSON error bodies used by
// the navshell HTTP API.
package apiresponses
