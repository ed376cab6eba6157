package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/mediscribe/mediscribe_backend/pkg/constants"
)

// ReadConfig loads config.yaml from configPath. The file is optional: every
// key can be supplied through the environment instead,
// e.g. MEDISCRIBE_DATABASE_HOST overrides database.host.
func ReadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(constants.ConfigName)
	v.SetConfigType(constants.ConfigFormat)
	v.AddConfigPath(configPath)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// The vendor keys are commonly exported without the app prefix.
	_ = v.BindEnv("gemini.api_key", constants.EnvPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("elevenlabs.api_key", constants.EnvPrefix+"_ELEVENLABS_API_KEY", "ELEVENLABS_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.timeout_seconds", 60)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.rate_limit.requests_per_window", 20)
	v.SetDefault("server.rate_limit.window_seconds", 30)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.dbname", "mediscribe")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.logging.slow_query_threshold_ms", 200)

	v.SetDefault("observability.service_name", constants.AppName)
	v.SetDefault("observability.service_version", "dev")
	v.SetDefault("observability.metrics.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output.stdout", true)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.upload_dir", "uploads")
	v.SetDefault("storage.audio_dir", "audio_outputs")
	v.SetDefault("storage.max_upload_mb", 16)
	v.SetDefault("storage.allowed_extensions", []string{"png", "jpg", "jpeg", "webp", "gif"})

	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.model", "gemini-flash-latest")
	v.SetDefault("gemini.timeout_seconds", 60)

	v.SetDefault("elevenlabs.base_url", "https://api.elevenlabs.io")
	v.SetDefault("elevenlabs.voice_id", "JBFqnCBsd6RMkjVDRZzb")
	v.SetDefault("elevenlabs.model_id", "eleven_multilingual_v2")
	v.SetDefault("elevenlabs.output_format", "mp3_44100_128")
	v.SetDefault("elevenlabs.stability", 0.5)
	v.SetDefault("elevenlabs.similarity_boost", 0.75)
	v.SetDefault("elevenlabs.style", 0.0)
	v.SetDefault("elevenlabs.speaker_boost", true)
	v.SetDefault("elevenlabs.timeout_seconds", 120)
}
