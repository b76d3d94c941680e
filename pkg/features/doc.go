// Package features models the assistant's feature flag snapshot and the
// sources that supply it (backend HTTP endpoint or static configuration).
package features
