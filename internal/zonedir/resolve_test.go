package zonedir

import (
	"errors"
	"testing"

	"zonectl/internal/zone"
)

// probeDirectory answers Load from a fixed set of hosted zones and records
// the probe order. Mutating operations are never reached by the resolver.
type probeDirectory struct {
	hosted map[string]bool
	probes []string
	err    error
}

func (p *probeDirectory) Load(name string) (*zone.RemoteZone, error) {
	p.probes = append(p.probes, name)
	if p.err != nil {
		return nil, p.err
	}
	if !p.hosted[name] {
		return nil, zone.ErrZoneMissing
	}
	return &zone.RemoteZone{ID: "z-" + name, Name: name, Data: map[string]any{"refresh": 300}}, nil
}

func (p *probeDirectory) Create(string, map[string]any) (*zone.RemoteZone, error) {
	return nil, errors.New("not implemented")
}

func (p *probeDirectory) Update(*zone.RemoteZone, map[string]any) (*zone.RemoteZone, error) {
	return nil, errors.New("not implemented")
}

func (p *probeDirectory) Delete(*zone.RemoteZone) error {
	return errors.New("not implemented")
}

func TestResolveZoneNamePrefersApex(t *testing.T) {
	dir := &probeDirectory{hosted: map[string]bool{"example.co.uk": true}}
	got, err := ResolveZoneName(dir, "www.api.example.co.uk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "example.co.uk" {
		t.Fatalf("resolved %q, want example.co.uk", got)
	}
	if len(dir.probes) != 1 || dir.probes[0] != "example.co.uk" {
		t.Errorf("probe order %v, want the registrable domain first", dir.probes)
	}
}

func TestResolveZoneNameFallsBackToSubdomainZone(t *testing.T) {
	dir := &probeDirectory{hosted: map[string]bool{"api.example.com": true}}
	got, err := ResolveZoneName(dir, "API.example.com.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "api.example.com" {
		t.Fatalf("resolved %q, want api.example.com", got)
	}
}

func TestResolveZoneNameNoMatch(t *testing.T) {
	dir := &probeDirectory{hosted: map[string]bool{}}
	if _, err := ResolveZoneName(dir, "www.example.com"); err == nil {
		t.Fatal("expected error when nothing is hosted")
	}
}

func TestResolveZoneNameAbortsOnProviderError(t *testing.T) {
	dir := &probeDirectory{err: &zone.ProviderError{Code: 500, Message: "internal error"}}
	_, err := ResolveZoneName(dir, "www.example.com")
	if err == nil {
		t.Fatal("expected provider error to abort the walk")
	}
	var perr *zone.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dir.probes) != 1 {
		t.Errorf("walk should stop at the first failing probe, got %v", dir.probes)
	}
}

func TestResolveZoneNameEmptyHost(t *testing.T) {
	dir := &probeDirectory{hosted: map[string]bool{}}
	if _, err := ResolveZoneName(dir, " . "); err == nil {
		t.Fatal("expected error for empty host")
	}
}
