// Package config loads and validates scribe's runtime configuration
// from config.yml, .env, and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/skillsenselab/scribe/internal/logger"
	"github.com/skillsenselab/scribe/internal/server/middleware"
	"github.com/skillsenselab/scribe/internal/util"
)

// Config is the root configuration for the scribe service.
type Config struct {
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Logging       logger.Config       `yaml:"logging" mapstructure:"logging"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Audio         AudioConfig         `yaml:"audio" mapstructure:"audio"`
	Storage       StorageConfig       `yaml:"storage" mapstructure:"storage"`
	Formats       FormatsConfig       `yaml:"formats" mapstructure:"formats"`
	Transcription TranscriptionConfig `yaml:"transcription" mapstructure:"transcription"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string                `yaml:"host" mapstructure:"host"`
	Port         int                   `yaml:"port" mapstructure:"port"`
	ReadTimeout  int                   `yaml:"read_timeout" mapstructure:"read_timeout"`   // seconds
	WriteTimeout int                   `yaml:"write_timeout" mapstructure:"write_timeout"` // seconds
	IdleTimeout  int                   `yaml:"idle_timeout" mapstructure:"idle_timeout"`   // seconds
	MaxBodySize  string                `yaml:"max_body_size" mapstructure:"max_body_size"` // e.g. "32MB"
	CORS         middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *ServerConfig) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 120
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "32MB"
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Origin", "Content-Type", "Accept"}
	}
}

// Validate checks the configuration for invalid values.
func (c *ServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0 {
		return fmt.Errorf("server timeouts must be non-negative")
	}
	return nil
}

// ObservabilityConfig holds OpenTelemetry exporter configuration.
type ObservabilityConfig struct {
	Enabled     bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint    string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure    bool          `yaml:"insecure" mapstructure:"insecure"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Interval    time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *ObservabilityConfig) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Interval == 0 {
		c.Interval = 15 * time.Second
	}
}

// AudioConfig holds microphone capture configuration.
type AudioConfig struct {
	SampleRate      int `yaml:"sample_rate" mapstructure:"sample_rate"`
	Channels        int `yaml:"channels" mapstructure:"channels"`
	FramesPerBuffer int `yaml:"frames_per_buffer" mapstructure:"frames_per_buffer"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *AudioConfig) ApplyDefaults() {
	if c.SampleRate == 0 {
		c.SampleRate = 16000
	}
	if c.Channels == 0 {
		c.Channels = 1
	}
	if c.FramesPerBuffer == 0 {
		c.FramesPerBuffer = 1024
	}
}

// Validate checks the configuration for invalid values.
func (c *AudioConfig) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("audio.sample_rate must be at least 8000 (got: %d)", c.SampleRate)
	}
	if c.Channels < 1 || c.Channels > 2 {
		return fmt.Errorf("audio.channels must be 1 or 2 (got: %d)", c.Channels)
	}
	return nil
}

// StorageConfig holds artifact store configuration.
type StorageConfig struct {
	// OutputDir is the managed root for audio and transcript artifacts.
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *StorageConfig) ApplyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = "downloads"
	}
}

// FormatsConfig holds the supported upload format set and size limit.
type FormatsConfig struct {
	// Extensions is the accepted set of upload extensions, with dots.
	Extensions []string `yaml:"extensions" mapstructure:"extensions"`
	// MaxFileSize is a human-readable limit for a single upload.
	MaxFileSize string `yaml:"max_file_size" mapstructure:"max_file_size"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *FormatsConfig) ApplyDefaults() {
	if len(c.Extensions) == 0 {
		c.Extensions = []string{".wav", ".mp3", ".ogg", ".flac", ".m4a", ".webm"}
	}
	if c.MaxFileSize == "" {
		c.MaxFileSize = "16MB"
	}
}

// MaxFileSizeBytes returns the upload limit in bytes.
func (c *FormatsConfig) MaxFileSizeBytes() int64 {
	return util.ParseSize(c.MaxFileSize, 16*1024*1024)
}

// Validate checks the configuration for invalid values.
func (c *FormatsConfig) Validate() error {
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("formats.extensions entries must start with a dot (got: %s)", ext)
		}
	}
	return nil
}

// TranscriptionConfig holds transcription engine configuration.
type TranscriptionConfig struct {
	// URL is the whisper-compatible sidecar base URL.
	URL string `yaml:"url" mapstructure:"url"`
	// Model is the transcription model to request.
	Model string `yaml:"model" mapstructure:"model"`
	// DefaultLanguage is used when a hint is missing or unknown.
	DefaultLanguage string `yaml:"default_language" mapstructure:"default_language"`
	// Timeout bounds a single transcription call.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *TranscriptionConfig) ApplyDefaults() {
	if c.URL == "" {
		c.URL = "http://localhost:8387"
	}
	if c.Model == "" {
		c.Model = "base"
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = "nl"
	}
	if c.Timeout == 0 {
		c.Timeout = 120 * time.Second
	}
}

// Validate checks the configuration for invalid values.
func (c *TranscriptionConfig) Validate() error {
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("transcription.url must be an http(s) URL (got: %s)", c.URL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("transcription.timeout must be non-negative")
	}
	return nil
}

// ApplyDefaults applies defaults to every section.
func (c *Config) ApplyDefaults() {
	c.Server.ApplyDefaults()
	c.Logging.ApplyDefaults()
	c.Observability.ApplyDefaults()
	c.Audio.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Formats.ApplyDefaults()
	c.Transcription.ApplyDefaults()
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Audio.Validate(); err != nil {
		return err
	}
	if err := c.Formats.Validate(); err != nil {
		return err
	}
	return c.Transcription.Validate()
}
