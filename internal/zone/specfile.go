package zone

import (
	"fmt"
	"os"
)

// LoadSpecFile reads a desired-state document (json or yaml) from disk.
// The state spelling is normalized; full validation is left to the caller
// so flag overrides can be merged in first.
func LoadSpecFile(path, format string) (*DesiredState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zone spec: %w", err)
	}
	if format == "" {
		format = DetectFormat(path)
	}
	var desired DesiredState
	if err := decode(data, format, &desired); err != nil {
		return nil, fmt.Errorf("decode zone spec: %w", err)
	}
	state, err := ParseState(string(desired.State))
	if err != nil {
		return nil, err
	}
	desired.State = state
	return &desired, nil
}
