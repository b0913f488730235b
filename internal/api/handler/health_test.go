package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/sereno/internal/probe"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error {
	return f.err
}

type fakeBackend struct {
	status probe.Status
}

func (f *fakeBackend) Status() probe.Status {
	return f.status
}

func TestHealthHandler_Health(t *testing.T) {
	app := fiber.New()
	handler := NewHealthHandler(nil, &fakeBackend{status: probe.StatusAvailable})
	app.Get("/health", handler.Health)

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var result HealthResponse
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if result.Status != "ok" {
		t.Errorf("Status = %s, want ok", result.Status)
	}

	if result.Version == "" {
		t.Error("Version should not be empty")
	}

	if result.Backend != "available" {
		t.Errorf("Backend = %s, want available", result.Backend)
	}
}

func TestHealthHandler_Ready(t *testing.T) {
	app := fiber.New()
	handler := NewHealthHandler(&fakePinger{}, nil)
	app.Get("/ready", handler.Ready)

	req := httptest.NewRequest("GET", "/ready", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var result HealthResponse
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if result.Status != "ready" {
		t.Errorf("Status = %s, want ready", result.Status)
	}
}

func TestHealthHandler_Ready_DatabaseDown(t *testing.T) {
	app := fiber.New()
	handler := NewHealthHandler(&fakePinger{err: errors.New("connection refused")}, nil)
	app.Get("/ready", handler.Ready)

	req := httptest.NewRequest("GET", "/ready", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test: %v", err)
	}

	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", resp.StatusCode)
	}
}
