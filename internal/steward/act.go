package steward

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talgya/kingdom-sim/internal/api"
)

// Actor executes builds via the admin API.
type Actor struct {
	BaseURL    string
	AdminKey   string
	HTTPClient *http.Client
}

// NewActor creates an Actor targeting the given API base URL with admin auth.
func NewActor(baseURL, adminKey string) *Actor {
	return &Actor{
		BaseURL:  baseURL,
		AdminKey: adminKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Build sends a decision to POST /api/v1/build. A rejected build is a
// result with Success false, not an error.
func (a *Actor) Build(d *Decision) (*api.BuildResponse, error) {
	body, err := json.Marshal(api.BuildRequest{Settlement: d.Settlement, Building: string(d.Building)})
	if err != nil {
		return nil, fmt.Errorf("marshal build: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, a.BaseURL+"/api/v1/build", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.AdminKey)

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST build: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var result api.BuildResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("build failed (%d): %s", resp.StatusCode, string(respBody))
	}
	return &result, nil
}
