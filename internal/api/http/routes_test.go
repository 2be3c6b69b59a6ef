package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nea-sg/rain-radar-camera/internal/radar"
	"github.com/nea-sg/rain-radar-camera/internal/registry"
	"github.com/nea-sg/rain-radar-camera/internal/store"
)

// stubProvider is a minimal ImageProvider for handler tests.
type stubProvider struct {
	img []byte
}

func (p *stubProvider) EntityID() string               { return "camera.test_rain_map" }
func (p *stubProvider) UniqueID() string               { return "test Rain Map" }
func (p *stubProvider) Name() string                   { return "Test Rain Map" }
func (p *stubProvider) SupportedFeatures() int         { return 0 }
func (p *stubProvider) ContentType() string            { return "image/png" }
func (p *stubProvider) StreamSource() string           { return "" }
func (p *stubProvider) Image(_ context.Context) []byte { return p.img }

func (p *stubProvider) ExtraStateAttributes() map[string]string {
	return map[string]string{"Updated at": "", "URL": ""}
}
func (p *stubProvider) DeviceInfo() radar.DeviceInfo {
	return radar.DeviceInfo{Manufacturer: "NEA Weather"}
}

func newTestApp(t *testing.T, provider registry.ImageProvider) *fiber.App {
	t.Helper()

	app := fiber.New()

	reg := registry.New()
	if provider != nil {
		if err := reg.Add(provider); err != nil {
			t.Fatalf("failed to register provider: %v", err)
		}
	}
	RegisterRoutes(app, reg, store.NewMemoryStore(10, time.Hour))
	return app
}

// TestImageEndpoint verifies the image handler serves the entity's bytes
// under its declared content type.
func TestImageEndpoint(t *testing.T) {
	app := newTestApp(t, &stubProvider{img: []byte("animated bytes")})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/camera/camera.test_rain_map/image", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected content type image/png, got %q", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "animated bytes" {
		t.Fatalf("unexpected body %q", body)
	}
}

// TestImageEndpointNoImage verifies that an entity without an image yields an
// empty 204 rather than an error.
func TestImageEndpointNoImage(t *testing.T) {
	app := newTestApp(t, &stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/camera/camera.test_rain_map/image", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, resp.StatusCode)
	}
}

// TestImageEndpointUnknownEntity verifies unknown entity ids return 404.
func TestImageEndpointUnknownEntity(t *testing.T) {
	app := newTestApp(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/camera/camera.nope/image", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

// TestStateEndpoint verifies the entity descriptor payload is served even
// before any state has been recorded.
func TestStateEndpoint(t *testing.T) {
	app := newTestApp(t, &stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/camera/camera.test_rain_map", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

// TestHistoryValidation verifies that the history endpoint enforces its
// required from/to query parameters.
func TestHistoryValidation(t *testing.T) {
	app := newTestApp(t, &stubProvider{})

	// Missing from/to should return 400.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/camera/camera.test_rain_map/history", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	// An inverted range should also return 400.
	req = httptest.NewRequest(http.MethodGet,
		"/api/v1/camera/camera.test_rain_map/history?from=2024-05-04T10:00:00Z&to=2024-05-04T09:00:00Z", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}
