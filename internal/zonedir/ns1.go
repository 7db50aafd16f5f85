// Package zonedir implements the zone directory contract against the NS1
// zones API.
package zonedir

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	api "gopkg.in/ns1/ns1-go.v2/rest"
	"gopkg.in/ns1/ns1-go.v2/rest/model/dns"

	"zonectl/internal/zone"
)

// NS1Config carries everything needed to talk to the NS1 zones API.
type NS1Config struct {
	APIKey   string
	Endpoint string // override for tests, default is the public API
	Timeout  time.Duration
}

// NS1 implements zone.Directory.
type NS1 struct {
	client *api.Client
}

// NewNS1 instantiates the directory client. A missing API key fails here,
// before any network call.
func NewNS1(cfg NS1Config) (*NS1, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("NS1 API key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	opts := []func(*api.Client){api.SetAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, api.SetEndpoint(cfg.Endpoint))
	}
	return &NS1{client: api.NewClient(httpClient, opts...)}, nil
}

func (d *NS1) Load(name string) (*zone.RemoteZone, error) {
	z, resp, err := d.client.Zones.Get(name)
	if err != nil {
		if errors.Is(err, api.ErrZoneMissing) {
			return nil, zone.ErrZoneMissing
		}
		return nil, wrapProviderError("load zone", resp, err)
	}
	return fromSDK(z)
}

func (d *NS1) Create(name string, attrs map[string]any) (*zone.RemoteZone, error) {
	z := dns.NewZone(name)
	if err := assignAttrs(z, attrs); err != nil {
		return nil, err
	}
	resp, err := d.client.Zones.Create(z)
	if err != nil {
		return nil, wrapProviderError("create zone", resp, err)
	}
	return fromSDK(z)
}

func (d *NS1) Update(existing *zone.RemoteZone, attrs map[string]any) (*zone.RemoteZone, error) {
	z := dns.NewZone(existing.Name)
	if err := assignAttrs(z, attrs); err != nil {
		return nil, err
	}
	resp, err := d.client.Zones.Update(z)
	if err != nil {
		return nil, wrapProviderError("update zone", resp, err)
	}
	if z.ID == "" {
		z.ID = existing.ID
	}
	return fromSDK(z)
}

func (d *NS1) Delete(existing *zone.RemoteZone) error {
	resp, err := d.client.Zones.Delete(existing.Name)
	if err != nil {
		if errors.Is(err, api.ErrZoneMissing) {
			return zone.ErrZoneMissing
		}
		return wrapProviderError("delete zone", resp, err)
	}
	return nil
}

// assignAttrs decodes schema attributes into the SDK zone model. The model
// and the provider wire format share JSON tags, so passthrough is a decode
// rather than a hand-written field mapping.
func assignAttrs(z *dns.Zone, attrs map[string]any) error {
	if len(attrs) == 0 {
		return nil
	}
	payload := make(map[string]any, len(attrs))
	for key, value := range attrs {
		payload[wireName(key)] = value
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode zone attributes: %w", err)
	}
	if err := json.Unmarshal(raw, z); err != nil {
		return fmt.Errorf("map zone attributes: %w", err)
	}
	return nil
}

// zoneData projects the SDK zone onto the fixed schema key set. Round-
// tripping through JSON keeps the value shapes identical to what the
// desired-state side produces for diffing.
func zoneData(z *dns.Zone) (map[string]any, error) {
	raw, err := json.Marshal(z)
	if err != nil {
		return nil, fmt.Errorf("encode zone: %w", err)
	}
	var full map[string]any
	if err := json.Unmarshal(raw, &full); err != nil {
		return nil, fmt.Errorf("decode zone: %w", err)
	}
	data := make(map[string]any)
	for _, key := range zone.Keys() {
		if value, ok := full[wireName(key)]; ok {
			data[key] = value
		}
	}
	return data, nil
}

func fromSDK(z *dns.Zone) (*zone.RemoteZone, error) {
	data, err := zoneData(z)
	if err != nil {
		return nil, err
	}
	return &zone.RemoteZone{ID: z.ID, Name: z.Zone, Data: data}, nil
}

// wireName translates a schema attribute to the provider's JSON key.
func wireName(key string) string {
	if key == zone.AttrNextTTL {
		return "nx_ttl"
	}
	return key
}

func wrapProviderError(op string, resp *http.Response, err error) error {
	var restErr *api.Error
	if errors.As(err, &restErr) {
		code := 0
		if restErr.Resp != nil {
			code = restErr.Resp.StatusCode
		}
		return fmt.Errorf("%s: %w", op, &zone.ProviderError{Code: code, Message: restErr.Message})
	}
	code := 0
	if resp != nil {
		code = resp.StatusCode
	}
	return fmt.Errorf("%s: %w", op, &zone.ProviderError{Code: code, Message: err.Error()})
}
