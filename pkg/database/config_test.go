package database

import (
	"testing"
	"time"

	"github.com/mediscribe/mediscribe_backend/config"
)

func TestFromCentralConfig(t *testing.T) {
	cfg := FromCentralConfig(config.DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "scribe",
		Password: "secret",
		DBName:   "mediscribe",
	})

	want := "host=db port=5433 user=scribe password=secret dbname=mediscribe sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
	if cfg.MaxOpenConns != 25 || cfg.MaxIdleConns != 5 {
		t.Errorf("pool = %d/%d, want defaults", cfg.MaxOpenConns, cfg.MaxIdleConns)
	}
}

func TestDurations(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		life time.Duration
		slow time.Duration
	}{
		{"defaults", Config{}, 5 * time.Minute, 200 * time.Millisecond},
		{"configured", Config{ConnMaxLifetimeMin: 30, SlowQueryThresholdMs: 50}, 30 * time.Minute, 50 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.ConnMaxLifetime(); got != tt.life {
				t.Errorf("ConnMaxLifetime() = %v, want %v", got, tt.life)
			}
			if got := tt.cfg.SlowQueryThreshold(); got != tt.slow {
				t.Errorf("SlowQueryThreshold() = %v, want %v", got, tt.slow)
			}
		})
	}
}
