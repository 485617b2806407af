package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoaderOption is a functional option for Load.
type LoaderOption func(*loaderConfig)

type loaderConfig struct {
	configFile string
	envFile    string
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.configFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.envFile = path }
}

// Load reads config.yml and .env files from standard locations, binds
// environment variables (SCRIBE_SERVER_PORT -> server.port), and
// unmarshals the result into cfg.
func Load(cfg *Config, opts ...LoaderOption) error {
	var lc loaderConfig
	for _, opt := range opts {
		opt(&lc)
	}

	if lc.envFile == "" {
		lc.envFile = findFirst(".env", "config/.env")
	}
	if lc.envFile != "" {
		if err := godotenv.Load(lc.envFile); err != nil {
			fmt.Fprintf(os.Stderr, "[config] warning: failed to load .env file %s: %v\n", lc.envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("SCRIBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Viper only overlays environment variables onto keys it knows
	// about, so bind the settings that may arrive env-only.
	for _, key := range []string{
		"server.host", "server.port",
		"server.read_timeout", "server.write_timeout", "server.idle_timeout",
		"server.max_body_size",
		"logging.level", "logging.format", "logging.output",
		"observability.enabled", "observability.endpoint",
		"observability.insecure", "observability.environment",
		"audio.sample_rate", "audio.channels", "audio.frames_per_buffer",
		"storage.output_dir",
		"formats.max_file_size",
		"transcription.url", "transcription.model",
		"transcription.default_language", "transcription.timeout",
	} {
		v.MustBindEnv(key)
	}

	if lc.configFile == "" {
		lc.configFile = findFirst("config.yml", "config/config.yml", "cmd/scribe/config.yml")
	}
	if lc.configFile != "" {
		v.SetConfigFile(lc.configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", lc.configFile, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.ApplyDefaults()
	return cfg.Validate()
}

func findFirst(paths ...string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
