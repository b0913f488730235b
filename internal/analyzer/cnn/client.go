package cnn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
)

// Config holds the configuration for the remote CNN client
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	ProbeTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:      "http://localhost:8000",
		Timeout:      10 * time.Second,
		ProbeTimeout: 3 * time.Second,
	}
}

// Client is the HTTP client for the remote stress-detection CNN service.
// Failures are not retried here: the orchestrator's fallback chain is the
// retry mechanism.
type Client struct {
	httpClient  *http.Client
	probeClient *http.Client
	config      Config
}

// NewClient creates a new remote CNN client
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.ProbeTimeout == 0 {
		config.ProbeTimeout = DefaultConfig().ProbeTimeout
	}
	return &Client{
		httpClient:  &http.Client{Timeout: config.Timeout},
		probeClient: &http.Client{Timeout: config.ProbeTimeout},
		config:      config,
	}
}

// Detect calls POST /api/detect/ with the data-URL encoded image.
func (c *Client) Detect(ctx context.Context, imageDataURL string) (*DetectResponse, error) {
	req := DetectRequest{Image: imageDataURL}

	var resp DetectResponse
	if err := c.doRequest(ctx, c.httpClient, http.MethodPost, "/api/detect/", req, &resp); err != nil {
		return nil, err
	}

	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "detection failed"
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrRemoteLogic, msg)
	}

	return &resp, nil
}

// Health calls GET /api/health/ with the shorter probe timeout. The service
// counts as healthy only when it reports status "healthy".
func (c *Client) Health(ctx context.Context) error {
	var resp HealthResponse
	if err := c.doRequest(ctx, c.probeClient, http.MethodGet, "/api/health/", nil, &resp); err != nil {
		return err
	}

	if resp.Status != "healthy" {
		return fmt.Errorf("%w: status %q", domain.ErrRemoteHTTP, resp.Status)
	}

	return nil
}

// KNNResults calls GET /api/knn-results/ for the classifier evaluation
// figures.
func (c *Client) KNNResults(ctx context.Context) (*domain.ModelMetrics, error) {
	var resp KNNResultsResponse
	if err := c.doRequest(ctx, c.httpClient, http.MethodGet, "/api/knn-results/", nil, &resp); err != nil {
		return nil, err
	}

	return &domain.ModelMetrics{
		Accuracy:            resp.Accuracy,
		ClassificationError: resp.ClassificationError,
		Sensitivity:         resp.Sensitivity,
		Specificity:         resp.Specificity,
		FalsePositiveRate:   resp.FalsePositiveRate,
		Precision:           resp.Precision,
		SampleSize:          resp.SampleSize,
	}, nil
}

// doRequest executes a single HTTP request
func (c *Client) doRequest(ctx context.Context, client *http.Client, method, path string, body interface{}, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	url := c.config.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if client == c.probeClient && (errors.Is(err, context.DeadlineExceeded) || isTimeout(err)) {
			return fmt.Errorf("%w: %v", domain.ErrProbeTimeout, err)
		}
		return fmt.Errorf("%w: %v", domain.ErrRemoteHTTP, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrRemoteHTTP, err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: status %d: %s", domain.ErrRemoteHTTP, resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: invalid body: %v", domain.ErrRemoteHTTP, err)
		}
	}

	return nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
