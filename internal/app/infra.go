package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/mediscribe/mediscribe_backend/config"
	"github.com/mediscribe/mediscribe_backend/pkg/database"
	"github.com/mediscribe/mediscribe_backend/pkg/elevenlabs"
	"github.com/mediscribe/mediscribe_backend/pkg/events"
	"github.com/mediscribe/mediscribe_backend/pkg/gemini"
	"github.com/mediscribe/mediscribe_backend/pkg/observability"
	redispkg "github.com/mediscribe/mediscribe_backend/pkg/redis"
	s3pkg "github.com/mediscribe/mediscribe_backend/pkg/s3"
	"github.com/mediscribe/mediscribe_backend/pkg/storage"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideLogger),
	fx.Provide(ProvideDatabase),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideS3Client),
	fx.Provide(ProvideBuckets),
	fx.Provide(ProvideNatsClient),
	fx.Provide(ProvidePublisher),
	fx.Provide(ProvideGeminiClient),
	fx.Provide(ProvideElevenLabsClient),
)

// ProvideLogger hands the process-wide logger, configured by the command
// before fx starts, to constructors that take one explicitly.
func ProvideLogger() *slog.Logger {
	return slog.Default()
}

func ProvideDatabase(lc fx.Lifecycle, cfg *config.Config) (*gorm.DB, error) {
	db, err := database.NewGorm(cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.Migrations.AutoMigrate {
		if err := database.Migrate(context.Background(), db); err != nil {
			_ = database.Close(db)
			return nil, err
		}
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing main database connection")
			return database.Close(db)
		},
	})
	return db, nil
}

// ProvideRedis returns a nil client when Redis is not configured.
func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	rdb, err := redispkg.New(context.Background(), cfg.Redis)
	if err != nil || rdb == nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

// ProvideS3Client returns a nil client unless the s3 storage driver is
// selected.
func ProvideS3Client(cfg *config.Config) (*s3pkg.Client, error) {
	if !strings.EqualFold(cfg.Storage.Driver, "s3") {
		return nil, nil
	}
	return s3pkg.New(cfg.S3)
}

func ProvideBuckets(cfg *config.Config, s3Client *s3pkg.Client) (*storage.Buckets, error) {
	return storage.New(cfg.Storage, s3Client)
}

// ProvideNatsClient returns a nil connection when no URL is configured.
func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	if cfg.Nats.URL == "" {
		return nil, nil
	}
	nc, err := nats.Connect(cfg.Nats.URL, nats.Name("mediscribe"))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return nc, nil
}

func ProvidePublisher(nc *nats.Conn) events.Publisher {
	if nc == nil {
		return events.Nop{}
	}
	return events.NewNATS(nc)
}

func ProvideGeminiClient(cfg *config.Config) *gemini.Client {
	return gemini.New(cfg.Gemini)
}

func ProvideElevenLabsClient(cfg *config.Config) *elevenlabs.Client {
	return elevenlabs.New(cfg.ElevenLabs)
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(), observability.FromCentralConfig(cfg))
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}
