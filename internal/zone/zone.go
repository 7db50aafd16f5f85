package zone

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// State is the desired presence of a zone at the provider.
type State string

const (
	StatePresent State = "present"
	StateAbsent  State = "absent"
)

// ParseState maps the accepted spellings onto the two intents. "active" and
// "deleted" are kept as synonyms for compatibility with older job definitions.
func ParseState(value string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "present", "active":
		return StatePresent, nil
	case "absent", "deleted":
		return StateAbsent, nil
	}
	return "", fmt.Errorf("invalid state %q (want present, active, absent or deleted)", value)
}

// Attribute names understood by the reconciler. Anything the provider stores
// outside this set is never read or written.
const (
	AttrRefresh   = "refresh"
	AttrRetry     = "retry"
	AttrExpiry    = "expiry"
	AttrNextTTL   = "next_ttl"
	AttrLink      = "link"
	AttrNetworks  = "networks"
	AttrSecondary = "secondary"
	AttrPrimary   = "primary"
)

// Kind classifies the value shape of a schema attribute.
type Kind int

const (
	KindInt Kind = iota
	KindString
	KindList
	KindMap
)

// Mutual-exclusion groups. A linked zone inherits its configuration from the
// link target, so the provider rejects link together with standalone
// attributes. retry deliberately carries no group.
const (
	groupLink       = "link"
	groupStandalone = "standalone"
)

// FieldSpec describes one attribute in the fixed zone schema.
type FieldSpec struct {
	Kind  Kind
	Group string
}

// Schema is the fixed attribute set zones are compared on.
var Schema = map[string]FieldSpec{
	AttrRefresh:   {Kind: KindInt, Group: groupStandalone},
	AttrRetry:     {Kind: KindInt},
	AttrExpiry:    {Kind: KindInt, Group: groupStandalone},
	AttrNextTTL:   {Kind: KindInt, Group: groupStandalone},
	AttrLink:      {Kind: KindString, Group: groupLink},
	AttrNetworks:  {Kind: KindList, Group: groupStandalone},
	AttrSecondary: {Kind: KindMap, Group: groupStandalone},
	AttrPrimary:   {Kind: KindMap, Group: groupStandalone},
}

// Keys returns the schema attribute names in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(Schema))
	for key := range Schema {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// DesiredState describes the configuration a zone should converge to.
// Nil fields mean "leave whatever the provider has".
type DesiredState struct {
	Name      string         `json:"name" yaml:"name"`
	State     State          `json:"state,omitempty" yaml:"state,omitempty"`
	Refresh   *int           `json:"refresh,omitempty" yaml:"refresh,omitempty"`
	Retry     *int           `json:"retry,omitempty" yaml:"retry,omitempty"`
	Expiry    *int           `json:"expiry,omitempty" yaml:"expiry,omitempty"`
	NextTTL   *int           `json:"next_ttl,omitempty" yaml:"next_ttl,omitempty"`
	Link      *string        `json:"link,omitempty" yaml:"link,omitempty"`
	Networks  []int          `json:"networks,omitempty" yaml:"networks,omitempty"`
	Secondary map[string]any `json:"secondary,omitempty" yaml:"secondary,omitempty"`
	Primary   map[string]any `json:"primary,omitempty" yaml:"primary,omitempty"`
}

// Attributes returns the explicitly set attributes keyed by schema name.
func (d *DesiredState) Attributes() map[string]any {
	attrs := make(map[string]any)
	if d.Refresh != nil {
		attrs[AttrRefresh] = *d.Refresh
	}
	if d.Retry != nil {
		attrs[AttrRetry] = *d.Retry
	}
	if d.Expiry != nil {
		attrs[AttrExpiry] = *d.Expiry
	}
	if d.NextTTL != nil {
		attrs[AttrNextTTL] = *d.NextTTL
	}
	if d.Link != nil {
		attrs[AttrLink] = *d.Link
	}
	if d.Networks != nil {
		attrs[AttrNetworks] = d.Networks
	}
	if d.Secondary != nil {
		attrs[AttrSecondary] = d.Secondary
	}
	if d.Primary != nil {
		attrs[AttrPrimary] = d.Primary
	}
	return attrs
}

// Validate checks the desired state against the schema. It runs before any
// provider call is made; an empty state defaults to present.
func (d *DesiredState) Validate() error {
	if d == nil {
		return errors.New("nil desired state")
	}
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("zone name is required")
	}
	if d.State == "" {
		d.State = StatePresent
	}
	if d.State != StatePresent && d.State != StateAbsent {
		return fmt.Errorf("invalid state %q", d.State)
	}

	groups := make(map[string][]string)
	for key := range d.Attributes() {
		spec, ok := Schema[key]
		if !ok || spec.Group == "" {
			continue
		}
		groups[spec.Group] = append(groups[spec.Group], key)
	}
	if len(groups[groupLink]) > 0 && len(groups[groupStandalone]) > 0 {
		conflicts := groups[groupStandalone]
		sort.Strings(conflicts)
		return fmt.Errorf("link cannot be combined with %s", strings.Join(conflicts, ", "))
	}
	return nil
}
