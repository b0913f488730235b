package factory

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/sereno/internal/analyzer"
	"github.com/saturnino-fabrica-de-software/sereno/internal/analyzer/cnn"
	"github.com/saturnino-fabrica-de-software/sereno/internal/analyzer/rekognition"
	"github.com/saturnino-fabrica-de-software/sereno/internal/config"
	"github.com/saturnino-fabrica-de-software/sereno/internal/probe"
)

// ProviderType defines supported remote analysis provider types
type ProviderType string

const (
	// ProviderTypeCNN is the self-hosted inference backend (local, for dev/test)
	ProviderTypeCNN ProviderType = "cnn"
	// ProviderTypeRekognition is the AWS Rekognition provider (cloud, for prod)
	ProviderTypeRekognition ProviderType = "rekognition"
)

// Remote bundles the remote analysis path: the analyzer itself, the health
// check the probe runs against it, and the CNN client when one exists (nil
// on the Rekognition path; model metrics then fall back to the stub).
type Remote struct {
	Analyzer analyzer.StressAnalyzer
	Checker  probe.HealthChecker
	Client   *cnn.Client
}

// alwaysHealthy is the health check for providers without a probe endpoint.
type alwaysHealthy struct{}

func (alwaysHealthy) Health(context.Context) error { return nil }

// NewRemote creates the remote analysis path based on configuration.
//
// Environment variables:
//   - PROVIDER_TYPE: "cnn" or "rekognition" (default: "cnn")
//   - CNN_BASE_URL: inference backend URL (default: "http://localhost:8000")
//   - AWS_REGION: AWS region for Rekognition (default: "us-east-1")
//   - AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY: via AWS SDK credential chain
func NewRemote(ctx context.Context, cfg *config.Config) (*Remote, error) {
	providerType := ProviderType(cfg.ProviderType)

	switch providerType {
	case ProviderTypeRekognition:
		a, err := rekognition.NewAnalyzer(ctx, rekognition.Config{Region: cfg.AWSRegion})
		if err != nil {
			return nil, fmt.Errorf("create rekognition analyzer: %w", err)
		}
		return &Remote{Analyzer: a, Checker: alwaysHealthy{}}, nil

	case ProviderTypeCNN, "":
		// Default to the self-hosted backend for dev/test environments
		client := cnn.NewClient(cnn.Config{
			BaseURL:      cfg.CNNBaseURL,
			Timeout:      cfg.CNNTimeout,
			ProbeTimeout: cfg.CNNProbeTimeout,
		})
		return &Remote{
			Analyzer: cnn.NewAnalyzerWithClient(client),
			Checker:  client,
			Client:   client,
		}, nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s)",
			cfg.ProviderType, ProviderTypeCNN, ProviderTypeRekognition)
	}
}
