package zone

import (
	"bytes"
	"encoding/json"
)

// Change records what an update will do to a single attribute.
type Change struct {
	From any `json:"from,omitempty" yaml:"from,omitempty"`
	To   any `json:"to" yaml:"to"`
}

// Diff compares the set desired attributes against the remote zone data.
// An attribute is included when it is set AND the remote either lacks the
// key or holds a different value. Attributes the desired state leaves nil
// never appear, so unspecified values can never trigger a change. The diff
// is shallow: structured values are compared whole, not merged.
func Diff(desired *DesiredState, remote map[string]any) map[string]Change {
	changes := make(map[string]Change)
	for key, want := range desired.Attributes() {
		have, ok := remote[key]
		if !ok {
			changes[key] = Change{To: want}
			continue
		}
		if equalValue(want, have) {
			continue
		}
		changes[key] = Change{From: have, To: want}
	}
	return changes
}

// Updates flattens a diff into the attribute map sent to the directory.
// Only differing attributes are carried.
func Updates(changes map[string]Change) map[string]any {
	if len(changes) == 0 {
		return nil
	}
	attrs := make(map[string]any, len(changes))
	for key, change := range changes {
		attrs[key] = change.To
	}
	return attrs
}

// equalValue compares via canonical JSON so values decoded by different
// frontends (yaml ints, json float64s, SDK structs) compare on content
// rather than Go type.
func equalValue(a, b any) bool {
	ja, err := json.Marshal(a)
	if err != nil {
		return false
	}
	jb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}
