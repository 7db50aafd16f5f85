package zone

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	errEmptyZoneName = errors.New("zone name is required")
	errNoZoneData    = errors.New("snapshot does not contain any zone data")
)

// Snapshot captures a zone's configuration at a point in time.
type Snapshot struct {
	ZoneName string         `json:"zone_name" yaml:"zone_name"`
	ID       string         `json:"id,omitempty" yaml:"id,omitempty"`
	Exported time.Time      `json:"exported_at" yaml:"exported_at"`
	Data     map[string]any `json:"data" yaml:"data"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// NewSnapshot builds a snapshot from a freshly loaded zone.
func NewSnapshot(z *RemoteZone) *Snapshot {
	return &Snapshot{
		ZoneName: z.Name,
		ID:       z.ID,
		Exported: time.Now().UTC(),
		Data:     z.Data,
	}
}

// Validate performs basic sanity checks before a snapshot is persisted.
func (s *Snapshot) Validate() error {
	if s == nil {
		return errors.New("nil snapshot")
	}
	if strings.TrimSpace(s.ZoneName) == "" {
		return errEmptyZoneName
	}
	if len(s.Data) == 0 {
		return errNoZoneData
	}
	if s.Exported.IsZero() {
		s.Exported = time.Now().UTC()
	}
	return nil
}

// EncodeSnapshot serializes the snapshot to JSON or YAML.
func EncodeSnapshot(snapshot *Snapshot, format string, pretty bool) ([]byte, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	return encode(snapshot, format, pretty)
}

// SaveSnapshot writes the snapshot to disk using the requested format.
func SaveSnapshot(snapshot *Snapshot, path, format string, pretty bool) error {
	if format == "" {
		format = DetectFormat(path)
	}
	content, err := EncodeSnapshot(snapshot, format, pretty)
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o600)
}

// LoadSnapshot loads a snapshot from disk. Format is inferred from the
// extension when empty.
func LoadSnapshot(path, format string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if format == "" {
		format = DetectFormat(path)
	}
	return DecodeSnapshot(data, format)
}

// DecodeSnapshot parses a serialized snapshot.
func DecodeSnapshot(data []byte, format string) (*Snapshot, error) {
	var snapshot Snapshot
	if err := decode(data, format, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// EncodeResult serializes a reconcile result to JSON or YAML.
func EncodeResult(result *Result, format string, pretty bool) ([]byte, error) {
	return encode(result, format, pretty)
}

// DetectFormat infers json or yaml from a file extension.
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

func encode(value any, format string, pretty bool) ([]byte, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return yaml.Marshal(value)
	case "", "json":
		if pretty {
			return json.MarshalIndent(value, "", "  ")
		}
		return json.Marshal(value)
	default:
		return nil, fmt.Errorf("unsupported format %q (want json or yaml)", format)
	}
}

func decode(data []byte, format string, out any) error {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return yaml.Unmarshal(data, out)
	case "", "json":
		return json.Unmarshal(data, out)
	default:
		return fmt.Errorf("unsupported format %q (want json or yaml)", format)
	}
}
