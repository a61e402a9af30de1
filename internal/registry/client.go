// Package registry implements the client side of the registry's reverse-DNS
// delegation API: fetching delegation records by prefix and pushing DS
// record updates back.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultAPIEndpoint is the base URL of the registry API. The account
	// name is appended as the first path segment.
	DefaultAPIEndpoint = "https://registry-api.apnic.net/v1"

	// DefaultTimeout is the HTTP client timeout.
	DefaultTimeout = 30 * time.Second
)

// Client talks to the registry's delegation API for one account.
type Client struct {
	apiEndpoint string
	account     string
	apikey      string
	httpClient  *http.Client
	logger      *slog.Logger
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAPIEndpoint sets a custom API endpoint (useful for testing).
func WithAPIEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.apiEndpoint = endpoint
	}
}

// NewClient creates a registry API client authenticating as account with
// the given bearer apikey.
func NewClient(account, apikey string, opts ...ClientOption) *Client {
	c := &Client{
		apiEndpoint: DefaultAPIEndpoint,
		account:     account,
		apikey:      apikey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// embeddedResponse wraps the HAL-style collection the GET endpoint returns.
type embeddedResponse struct {
	Embedded struct {
		Records []DelegationRecord `json:"rdns-record"`
	} `json:"_embedded"`
}

// updateRequest is the body of a bulk delegation update.
type updateRequest struct {
	Update []DelegationRecord `json:"update"`
}

// doRequest performs one HTTP request against the registry API. Non-2xx
// responses come back as *HTTPError with the body attached for diagnostics.
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/%s%s", c.apiEndpoint, c.account, path)

	c.logger.Debug("making API request",
		slog.String("method", method),
		slog.String("path", path),
	)

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apikey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: respBody}
	}

	return respBody, nil
}

// Delegations fetches the delegation records the registry holds for the
// given prefix.
func (c *Client) Delegations(ctx context.Context, prefix string) ([]DelegationRecord, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/rdns/"+prefix, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching delegations for %s: %w", prefix, err)
	}

	var parsed embeddedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parsing delegations response: %w", err)
	}

	c.logger.Debug("fetched delegation records",
		slog.String("prefix", prefix),
		slog.Int("count", len(parsed.Embedded.Records)),
	)

	return parsed.Embedded.Records, nil
}

// Update pushes whole delegation records back to the registry as a bulk
// update and returns the raw response body for reporting.
func (c *Client) Update(ctx context.Context, records ...DelegationRecord) ([]byte, error) {
	reqBody, err := json.Marshal(updateRequest{Update: records})
	if err != nil {
		return nil, fmt.Errorf("marshaling update request: %w", err)
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, "/rdns", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("updating delegations: %w", err)
	}

	c.logger.Info("pushed delegation update",
		slog.Int("records", len(records)),
	)

	return respBody, nil
}
