// Package ratelimit provides per-client token bucket limiting for the page and
// navigation routes.
package ratelimit
