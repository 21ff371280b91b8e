package harness

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukex/autoflow/pkg/builder"
	"github.com/dukex/autoflow/pkg/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 30 * time.Second

// APIError is a problem document returned by the server.
type APIError struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("autoflow: %d %s", e.Status, cmp.Or(e.Detail, e.Title, http.StatusText(e.Status)))
}

// Client talks to an autoflow server. It is both the configuration and the harness of a
// builder.
type Client struct {
	baseURL    string
	appID      string
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient returns a client for the server at baseURL acting for appID.
func NewClient(baseURL, appID string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		appID:   appID,
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) AppID() string {
	return c.appID
}

// CreateAutomation stores the automation on the server.
func (c *Client) CreateAutomation(ctx context.Context, automation *models.Automation) (*models.Automation, error) {
	if automation == nil {
		return nil, ErrNoAutomation
	}

	if automation.AppID == "" {
		automation.AppID = c.appID
	}

	var created models.Automation
	if err := c.do(ctx, http.MethodPost, "/api/automations", automation, &created); err != nil {
		return nil, err
	}

	return &created, nil
}

// TestAutomation runs a stored automation on the server.
func (c *Client) TestAutomation(
	ctx context.Context,
	_ builder.Config,
	automation *models.Automation,
	outputs models.TriggerOutputs,
) (*builder.TestResponse, error) {
	if automation == nil {
		return nil, ErrNoAutomation
	}

	var response builder.TestResponse

	path := "/api/automations/" + url.PathEscape(automation.ID) + "/test"
	if err := c.do(ctx, http.MethodPost, path, outputs, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		apiErr.Status = resp.StatusCode

		return apiErr
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
