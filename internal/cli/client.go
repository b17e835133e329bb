package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SecCamCloud/seccamcloud/pkg/models"
)

// monitorClient talks to a running daemon's monitor server.
type monitorClient struct {
	baseURL    string
	httpClient *http.Client
}

func newMonitorClient(addr string) (*monitorClient, error) {
	if addr == "" {
		return nil, fmt.Errorf("monitor server is disabled (set monitor.addr in the config)")
	}
	return &monitorClient{
		baseURL:    "http://" + addr,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}, nil
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

func (c *monitorClient) do(method, path string, wantStatus int) (*apiResponse, error) {
	url := c.baseURL + path
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error contacting daemon at %s (is SecCamCloud running?): %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	var out apiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("daemon returned status %s: %s", resp.Status, string(body))
	}
	if resp.StatusCode != wantStatus {
		msg := out.Error
		if msg == "" {
			msg = string(body)
		}
		return nil, fmt.Errorf("daemon returned status %s: %s", resp.Status, msg)
	}
	return &out, nil
}

// Status fetches the daemon's status snapshot.
func (c *monitorClient) Status() (models.Snapshot, error) {
	var snap models.Snapshot
	resp, err := c.do(http.MethodGet, "/api/status", http.StatusOK)
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal(resp.Data, &snap); err != nil {
		return snap, fmt.Errorf("failed to decode status: %w", err)
	}
	return snap, nil
}

// StopAutomation asks the daemon to stop its automation engine.
func (c *monitorClient) StopAutomation() (string, error) {
	resp, err := c.do(http.MethodPost, "/api/automation/stop", http.StatusAccepted)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}
