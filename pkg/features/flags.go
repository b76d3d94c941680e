// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package features

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Feature names an optional surface of the assistant.
type Feature string

const (
	WebChat              Feature = "ENABLE_WEB_CHAT"
	UngroundedChat       Feature = "ENABLE_UNGROUNDED_CHAT"
	MathAssistant        Feature = "ENABLE_MATH_ASSISTANT"
	TabularDataAssistant Feature = "ENABLE_TABULAR_DATA_ASSISTANT"
	Multimedia           Feature = "ENABLE_MULTIMEDIA"
)

// Known lists every feature the backend reports. Keys outside this set are dropped.
var Known = []Feature{WebChat, UngroundedChat, MathAssistant, TabularDataAssistant, Multimedia}

// IsKnown reports whether f belongs to the fixed feature set.
func IsKnown(f Feature) bool {
	for _, k := range Known {
		if k == f {
			return true
		}
	}
	return false
}

// Flags is an immutable snapshot of enabled features. A nil *Flags means the
// flags are unknown, which is not the same as every flag being false.
type Flags struct {
	values map[Feature]bool
}

// NewFlags copies values into a new snapshot, ignoring unknown features.
func NewFlags(values map[Feature]bool) *Flags {
	f := &Flags{values: make(map[Feature]bool, len(values))}
	for k, v := range values {
		if IsKnown(k) {
			f.values[k] = v
		}
	}
	return f
}

// Enabled reports whether feature is switched on. Nil snapshots and absent
// keys report false.
func (f *Flags) Enabled(feature Feature) bool {
	if f == nil {
		return false
	}
	return f.values[feature]
}

// EnabledFeatures returns the switched-on features in sorted order.
func (f *Flags) EnabledFeatures() []Feature {
	if f == nil {
		return nil
	}
	out := make([]Feature, 0, len(f.values))
	for k, v := range f.values {
		if v {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarshalJSON renders the snapshot in the backend wire shape.
func (f *Flags) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	return json.Marshal(f.values)
}

// ParseFlags decodes a backend payload of the form {"ENABLE_X": true, ...}.
func ParseFlags(data []byte) (*Flags, error) {
	raw := map[string]any{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding feature flags: %w", err)
	}
	values := make(map[Feature]bool, len(raw))
	for k, v := range raw {
		b, ok := v.(bool)
		if !ok {
			// non-boolean values are not switches
			continue
		}
		values[Feature(k)] = b
	}
	return NewFlags(values), nil
}

// FromStrings builds a snapshot from configuration keys.
func FromStrings(values map[string]bool) *Flags {
	m := make(map[Feature]bool, len(values))
	for k, v := range values {
		m[Feature(k)] = v
	}
	return NewFlags(m)
}
