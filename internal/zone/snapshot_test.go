package zone

import (
	"path/filepath"
	"testing"
)

func TestSnapshotValidate(t *testing.T) {
	snapshot := NewSnapshot(&RemoteZone{
		ID:   "z1",
		Name: "example.com",
		Data: map[string]any{"refresh": 300},
	})
	if err := snapshot.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	empty := &Snapshot{ZoneName: "example.com"}
	if err := empty.Validate(); err != errNoZoneData {
		t.Errorf("expected errNoZoneData, got %v", err)
	}

	unnamed := &Snapshot{Data: map[string]any{"refresh": 300}}
	if err := unnamed.Validate(); err != errEmptyZoneName {
		t.Errorf("expected errEmptyZoneName, got %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	snapshot := NewSnapshot(&RemoteZone{
		ID:   "z1",
		Name: "example.com",
		Data: map[string]any{"refresh": 300, "link": "other.com"},
	})

	for _, format := range []string{"json", "yaml"} {
		path := filepath.Join(t.TempDir(), "snapshot."+format)
		if err := SaveSnapshot(snapshot, path, format, true); err != nil {
			t.Fatalf("%s: save: %v", format, err)
		}
		loaded, err := LoadSnapshot(path, "")
		if err != nil {
			t.Fatalf("%s: load: %v", format, err)
		}
		if loaded.ZoneName != "example.com" || loaded.ID != "z1" {
			t.Errorf("%s: loaded %+v", format, loaded)
		}
		if loaded.Data["link"] != "other.com" {
			t.Errorf("%s: link = %v", format, loaded.Data["link"])
		}
	}
}

func TestEncodeSnapshotRejectsUnknownFormat(t *testing.T) {
	snapshot := NewSnapshot(&RemoteZone{Name: "example.com", Data: map[string]any{"refresh": 300}})
	if _, err := EncodeSnapshot(snapshot, "toml", false); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"backup.yaml", "yaml"},
		{"backup.YML", "yaml"},
		{"backup.json", "json"},
		{"backup", "json"},
	}
	for _, tt := range tests {
		if got := DetectFormat(tt.path); got != tt.want {
			t.Errorf("DetectFormat(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
