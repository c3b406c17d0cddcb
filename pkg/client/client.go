package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
)

// HealthStatus is the GET /health response.
type HealthStatus struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

// Healthy reports whether the service is up with its model loaded.
func (h *HealthStatus) Healthy() bool {
	return h.Status == "healthy" && h.ModelLoaded
}

// Column describes one request field and the categories the model accepts.
type Column struct {
	Column     string   `json:"column"`
	Field      string   `json:"field"`
	Categories []string `json:"categories"`
}

// ModelInfo is the GET /model response.
type ModelInfo struct {
	Columns      []Column          `json:"columns"`
	Algorithms   []string          `json:"algorithms"`
	Fingerprints map[string]string `json:"fingerprints"`
	LoadedAt     time.Time         `json:"loaded_at"`
}

// Params holds one category value per request field, keyed by field name
// (file_size, data_type, ...).
type Params map[string]string

// Prediction is a successful POST /predict response.
type Prediction struct {
	Algorithm string         `json:"predicted_algorithm"`
	Input     map[string]any `json:"input_parameters"`
}

// APIError is returned for any non-2xx response. Message is the service's
// "error" field when present, otherwise the raw body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("predictor returned %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether retrying the same request could succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Client talks to a predictor service.
type Client struct {
	base       string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("nil http.Client")
		}
		c.httpClient = hc
		return nil
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", d)
		}
		c.httpClient.Timeout = d
		return nil
	}
}

// WithCircuitBreaker stops calling the service after five consecutive
// transport errors or 5xx responses, and probes it again after cooldown.
// Client errors (4xx) never count as failures.
func WithCircuitBreaker(cooldown time.Duration, onStateChange func(from, to string)) Option {
	return func(c *Client) error {
		c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        "predictor",
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				var apiErr *APIError
				if errors.As(err, &apiErr) {
					return apiErr.StatusCode < 500
				}
				return err == nil
			},
			OnStateChange: func(_ string, from, to gobreaker.State) {
				if onStateChange != nil {
					onStateChange(from.String(), to.String())
				}
			},
		})
		return nil
	}
}

// New creates a Client for the service at base, e.g. "http://localhost:5000".
func New(base string, opts ...Option) (*Client, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return nil, errors.New("empty predictor URL")
	}
	c := &Client{
		base:       base,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on error. Useful in tests and program init.
func MustNew(base string, opts ...Option) *Client {
	c, err := New(base, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// BaseURL returns the service URL the client was built with.
func (c *Client) BaseURL() string { return c.base }

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.call(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Model calls GET /model.
func (c *Client) Model(ctx context.Context) (*ModelInfo, error) {
	var out ModelInfo
	if err := c.call(ctx, http.MethodGet, "/model", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Predict calls POST /predict with p. A sensorID of 0 is left out of the
// request.
func (c *Client) Predict(ctx context.Context, sensorID int, p Params) (*Prediction, error) {
	body := make(map[string]any, len(p)+1)
	if sensorID != 0 {
		body["sensor_id"] = sensorID
	}
	for k, v := range p {
		body[k] = v
	}

	var out Prediction
	if err := c.call(ctx, http.MethodPost, "/predict", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	var body []byte
	if c.breaker != nil {
		body, err = c.breaker.Execute(func() ([]byte, error) { return c.do(req) })
	} else {
		body, err = c.do(req)
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

// errorMessage extracts {"error": "..."} from body, falling back to the raw
// text.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
