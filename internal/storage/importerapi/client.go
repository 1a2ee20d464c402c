// Package importerapi implements the remote-lookup backend: a client for
// the importer service that records which remote-graph entries have been
// imported into the local wiki and under which ids.
package importerapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/graphport/wbclient/internal/storage"
	"github.com/graphport/wbclient/pkg/types"
)

// Config holds importer API client configuration.
type Config struct {
	// BaseURL is the root of the importer lookup service.
	BaseURL string

	// Timeout is the per-request timeout (default: 10s).
	Timeout time.Duration

	// MaxFailures is the number of consecutive failures that trips the
	// circuit (default: 3).
	MaxFailures uint32

	// RecoveryTimeout is how long the circuit stays open before letting
	// probe requests through again (default: 30s).
	RecoveryTimeout time.Duration
}

// Client is the remote-service MappingLookup backend. All calls go
// through a circuit breaker so a dead importer service fails fast
// instead of stalling every resolution.
type Client struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// mappingResponse is the body of /items/{ref}/mapping and
// /properties/{ref}/mapping.
type mappingResponse struct {
	LocalID string `json:"local_id"`
}

// itemSearchResponse is the body of /search/items/{label}.
type itemSearchResponse struct {
	QID []string `json:"QID"`
}

// propertySearchResponse is the body of /search/properties/{label}.
// The service reports at most one property per label.
type propertySearchResponse struct {
	PID string `json:"PID"`
}

// NewClient creates an importer API client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 3
	}
	if cfg.RecoveryTimeout == 0 {
		cfg.RecoveryTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "ImporterAPI",
		Timeout: cfg.RecoveryTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// A no-match answer is a healthy response from the service, not
		// a failure that should trip the circuit.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, storage.ErrNotFound)
		},
	}

	return &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// getJSON issues a GET through the circuit breaker and decodes the JSON
// body into out. A 404 is reported as storage.ErrNotFound without
// counting as a breaker failure.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("importerapi: request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, storage.ErrNotFound
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("importerapi: unexpected status %d: %s", resp.StatusCode, body)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("importerapi: failed to decode response: %w", err)
		}
		return nil, nil
	})
	return err
}

// LookupRemoteMapping asks the importer service for the local id a
// remote entry was imported as.
func (c *Client) LookupRemoteMapping(ctx context.Context, kind types.EntityKind, remoteID types.EntityID) (types.EntityID, error) {
	resource := "items"
	if kind == types.KindProperty {
		resource = "properties"
	}
	path := fmt.Sprintf("/%s/%s/mapping", resource, url.PathEscape(remoteID.String()))

	var body mappingResponse
	if err := c.getJSON(ctx, path, &body); err != nil {
		return types.EntityID{}, err
	}
	if body.LocalID == "" {
		return types.EntityID{}, storage.ErrNotFound
	}

	id, err := types.ParseLocalID(body.LocalID)
	if err != nil {
		return types.EntityID{}, fmt.Errorf("importerapi: mapping for %s holds malformed local id: %w", remoteID, err)
	}
	return id, nil
}

// SearchByLabel asks the importer service for entries carrying the given
// English label. The item endpoint reports a list, the property endpoint
// a single id.
func (c *Client) SearchByLabel(ctx context.Context, kind types.EntityKind, label string) ([]types.EntityID, error) {
	if kind == types.KindProperty {
		var body propertySearchResponse
		err := c.getJSON(ctx, "/search/properties/"+url.PathEscape(label), &body)
		if errors.Is(err, storage.ErrNotFound) || (err == nil && body.PID == "") {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		id, err := types.ParseLocalID(body.PID)
		if err != nil {
			return nil, fmt.Errorf("importerapi: property search for %q returned malformed id: %w", label, err)
		}
		return []types.EntityID{id}, nil
	}

	var body itemSearchResponse
	err := c.getJSON(ctx, "/search/items/"+url.PathEscape(label), &body)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ids := make([]types.EntityID, 0, len(body.QID))
	for _, raw := range body.QID {
		id, err := types.ParseLocalID(raw)
		if err != nil {
			return nil, fmt.Errorf("importerapi: item search for %q returned malformed id: %w", label, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
