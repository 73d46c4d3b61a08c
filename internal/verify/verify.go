// Package verify is a thin client for the external vision service that
// judges whether a replayed step had its expected effect. The service
// is a black box: we send a description of the action and the expected
// result, it answers pass or fail.
package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// EnvServiceURL names the environment variable holding the service
// base URL.
const EnvServiceURL = "UI_EXPLORER_VERIFIER_URL"

const defaultTimeout = 30 * time.Second

// Request describes one step to be verified.
type Request struct {
	ActionDescription string `json:"action_description"`
	ExpectedResult    string `json:"expected_result"`
	Query             string `json:"query,omitempty"`

	// BeforeImage optionally carries a base64-encoded PNG of the screen
	// before the action, for before/after comparison.
	BeforeImage string `json:"before_image,omitempty"`
}

// Outcome is the service's verdict. A transport error or timeout is
// reported as a failed verification, never as a fatal error.
type Outcome struct {
	Passed  bool   `json:"passed"`
	Details string `json:"details"`
}

// Client talks to the vision service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the given base URL. timeout bounds each
// verification request; zero means the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// ClientFromEnv builds a client from UI_EXPLORER_VERIFIER_URL, or nil
// when the variable is unset (verification unavailable).
func ClientFromEnv() *Client {
	url := os.Getenv(EnvServiceURL)
	if url == "" {
		return nil
	}
	return NewClient(url, 0)
}

// Verify asks the service to judge one step. Any transport failure,
// non-200 status, or timeout degrades to a failed outcome carrying the
// error text.
func (c *Client) Verify(ctx context.Context, req Request) Outcome {
	body, err := json.Marshal(req)
	if err != nil {
		return Outcome{Details: fmt.Sprintf("encode request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return Outcome{Details: fmt.Sprintf("build request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Outcome{Details: fmt.Sprintf("verification service unreachable: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Outcome{Details: fmt.Sprintf("verification service returned %s", resp.Status)}
	}

	var out Outcome
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Outcome{Details: fmt.Sprintf("decode verdict: %v", err)}
	}
	return out
}
