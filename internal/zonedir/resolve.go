package zonedir

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/publicsuffix"

	"zonectl/internal/zone"
)

// ResolveZoneName walks a hostname up to the zone the directory actually
// hosts. The effective TLD+1 is probed first, then each suffix of the host.
// Load failures other than not-found abort the walk.
func ResolveZoneName(dir zone.Directory, host string) (string, error) {
	clean := sanitizeCandidateHost(host)
	if clean == "" {
		return "", errors.New("host is required to resolve zone")
	}
	for _, candidate := range zoneCandidates(clean) {
		_, err := dir.Load(candidate)
		if err == nil {
			return candidate, nil
		}
		if !zone.IsNotFound(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("no hosted zone matches host %s", clean)
}

func sanitizeCandidateHost(host string) string {
	value := strings.TrimSpace(strings.ToLower(host))
	value = strings.Trim(value, ".")
	value = strings.TrimPrefix(value, "www.")
	return value
}

func zoneCandidates(host string) []string {
	seen := make(map[string]struct{})
	var candidates []string

	add := func(candidate string) {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			return
		}
		if _, exists := seen[candidate]; exists {
			return
		}
		seen[candidate] = struct{}{}
		candidates = append(candidates, candidate)
	}

	if etld, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		add(etld)
	}

	labels := strings.Split(host, ".")
	for i := 0; i <= len(labels)-2; i++ {
		add(strings.Join(labels[i:], "."))
	}

	return candidates
}
