// Package steward implements the automated builder.
// It observes the kingdom via the API, decides on a build by rule,
// and acts via the admin build endpoint.
package steward

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talgya/kingdom-sim/internal/economy"
	"github.com/talgya/kingdom-sim/internal/engine"
)

// Observation holds all data collected during an observation cycle.
type Observation struct {
	Snapshot engine.Snapshot
	Catalog  []economy.BuildingDef
}

// Observer fetches kingdom state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Observe fetches the snapshot and the building catalog.
func (o *Observer) Observe() (*Observation, error) {
	obs := &Observation{}
	if err := o.fetchJSON("/api/v1/snapshot", &obs.Snapshot); err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	if err := o.fetchJSON("/api/v1/buildings", &obs.Catalog); err != nil {
		return nil, fmt.Errorf("fetch buildings: %w", err)
	}
	return obs, nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(path string, target any) error {
	resp, err := o.HTTPClient.Get(o.BaseURL + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
