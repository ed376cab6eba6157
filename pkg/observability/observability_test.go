package observability

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/mediscribe/mediscribe_backend/config"
)

func TestFromCentralConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Observability.ServiceName = "mediscribe"
	cfg.Observability.Tracing = config.TracingConfig{Enabled: true, OTLPEndpoint: "localhost:4318", SamplingRate: 0.5}
	cfg.Server.Environment = "production"

	got := FromCentralConfig(cfg)
	if got.ServiceName != "mediscribe" || !got.TracingEnabled || got.OTLPEndpoint != "localhost:4318" || got.Environment != "production" {
		t.Errorf("FromCentralConfig() = %+v", got)
	}
}

func TestFiberMiddleware_SetsTraceHeader(t *testing.T) {
	ctx := context.Background()
	provider, err := InitTelemetry(ctx, Config{ServiceName: "mediscribe-test"})
	if err != nil {
		t.Fatalf("InitTelemetry() error = %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	app := fiber.New()
	app.Use(FiberMiddleware())
	app.Get("/api/health", func(c fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/health", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if len(resp.Header.Get(HeaderTraceID)) != 32 {
		t.Errorf("%s = %q, want a 32-char trace id", HeaderTraceID, resp.Header.Get(HeaderTraceID))
	}
}
