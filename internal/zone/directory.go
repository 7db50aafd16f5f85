package zone

import (
	"errors"
	"fmt"
)

// RemoteZone is the provider's current representation of a hosted zone.
// Data holds the schema attributes as last fetched, keyed by attribute name.
type RemoteZone struct {
	ID   string
	Name string
	Data map[string]any
}

// Directory is the provider-facing contract the reconciler consumes.
// Operations are synchronous and blocking; a reconcile run makes at most one
// read and one write.
type Directory interface {
	// Load fetches a zone by name. A missing zone returns ErrZoneMissing.
	Load(name string) (*RemoteZone, error)
	// Create registers a new zone carrying the given attributes.
	Create(name string, attrs map[string]any) (*RemoteZone, error)
	// Update applies only the given attributes to an existing zone.
	Update(zone *RemoteZone, attrs map[string]any) (*RemoteZone, error)
	// Delete removes the zone from the provider.
	Delete(zone *RemoteZone) error
}

// ErrZoneMissing reports that the provider has no zone under the requested
// name. During a fetch this is a valid state, not a failure.
var ErrZoneMissing = errors.New("zone does not exist")

// ProviderError carries the provider's failure status and message. Any
// directory error other than ErrZoneMissing is fatal to the invocation.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code == 0 {
		return e.Message
	}
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// IsNotFound reports whether err means the zone is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrZoneMissing)
}
