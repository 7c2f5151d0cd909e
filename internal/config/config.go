// Package config provides configuration loading and validation for the server and CLI.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jonathan/cv-builder/internal/export"
	"github.com/jonathan/cv-builder/internal/server/ratelimit"
)

// DefaultPath is read when CONFIG_PATH is unset
const DefaultPath = "./config.yaml"

// Config is the root configuration. Priority: ENV > YAML > env-default tags.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Export    ExportConfig    `yaml:"export"`
	Render    RenderConfig    `yaml:"render"`
	Log       LogConfig       `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"90s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"30s"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"   env:"SERVER_MAX_BODY_BYTES"   env-default:"10485760"`
}

// ExportConfig holds headless browser settings
type ExportConfig struct {
	ChromePath        string        `yaml:"chrome_path"         env:"CHROME_PATH"`
	LoadTimeout       time.Duration `yaml:"load_timeout"        env:"EXPORT_LOAD_TIMEOUT"        env-default:"30s"`
	PrintTimeout      time.Duration `yaml:"print_timeout"       env:"EXPORT_PRINT_TIMEOUT"       env-default:"30s"`
	SettleDelay       time.Duration `yaml:"settle_delay"        env:"EXPORT_SETTLE_DELAY"        env-default:"500ms"`
	ViewportWidth     int64         `yaml:"viewport_width"      env:"EXPORT_VIEWPORT_WIDTH"      env-default:"794"`
	ViewportHeight    int64         `yaml:"viewport_height"     env:"EXPORT_VIEWPORT_HEIGHT"     env-default:"1123"`
	DeviceScaleFactor float64       `yaml:"device_scale_factor" env:"EXPORT_DEVICE_SCALE_FACTOR" env-default:"2"`
	PaperWidth        float64       `yaml:"paper_width"         env:"EXPORT_PAPER_WIDTH"         env-default:"8.27"`
	PaperHeight       float64       `yaml:"paper_height"        env:"EXPORT_PAPER_HEIGHT"        env-default:"11.69"`
	MaxConcurrent     int64         `yaml:"max_concurrent"      env:"EXPORT_MAX_CONCURRENT"      env-default:"2"`
}

// RenderConfig holds template defaults
type RenderConfig struct {
	DefaultTemplate string `yaml:"default_template" env:"RENDER_DEFAULT_TEMPLATE" env-default:"template-1"`
	DefaultTheme    string `yaml:"default_theme"    env:"RENDER_DEFAULT_THEME"    env-default:"blue"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	Enabled         bool          `yaml:"enabled"          env:"RATE_LIMIT_ENABLED"          env-default:"true"`
	DefaultLimit    int           `yaml:"default_limit"    env:"RATE_LIMIT_DEFAULT_LIMIT"    env-default:"1000"`
	DefaultWindow   time.Duration `yaml:"default_window"   env:"RATE_LIMIT_DEFAULT_WINDOW"   env-default:"1m"`
	ExportLimit     int           `yaml:"export_limit"     env:"RATE_LIMIT_EXPORT_LIMIT"     env-default:"10"`
	ExportWindow    time.Duration `yaml:"export_window"    env:"RATE_LIMIT_EXPORT_WINDOW"    env-default:"1m"`
	ExportBurst     int           `yaml:"export_burst"     env:"RATE_LIMIT_EXPORT_BURST"     env-default:"3"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"RATE_LIMIT_CLEANUP_INTERVAL" env-default:"5m"`
	Whitelist       string        `yaml:"whitelist"        env:"RATE_LIMIT_WHITELIST"`
	Blacklist       string        `yaml:"blacklist"        env:"RATE_LIMIT_BLACKLIST"`
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
}

// Load reads configuration from the YAML file named by CONFIG_PATH (falling
// back to DefaultPath) and environment variables. A missing file is an
// error only when CONFIG_PATH was set explicitly.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	if _, err := os.Stat(path); err == nil || explicit {
		return LoadConfig(path)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig reads configuration from the YAML file at path plus environment variables
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration produced by the env-default tags alone
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    10 << 20,
		},
		Export: ExportConfig{
			LoadTimeout:       export.DefaultLoadTimeout,
			PrintTimeout:      export.DefaultPrintTimeout,
			SettleDelay:       export.DefaultSettleDelay,
			ViewportWidth:     export.DefaultViewportWidth,
			ViewportHeight:    export.DefaultViewportHeight,
			DeviceScaleFactor: export.DefaultDeviceScaleFactor,
			PaperWidth:        export.DefaultPaperWidth,
			PaperHeight:       export.DefaultPaperHeight,
			MaxConcurrent:     export.DefaultMaxConcurrent,
		},
		Render: RenderConfig{
			DefaultTemplate: "template-1",
			DefaultTheme:    "blue",
		},
		Log: LogConfig{Level: "info", Format: "text"},
		RateLimit: RateLimitConfig{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			ExportLimit:     10,
			ExportWindow:    time.Minute,
			ExportBurst:     3,
			CleanupInterval: 5 * time.Minute,
		},
		CORS: CORSConfig{AllowedOrigins: "*"},
	}
}

// Validate checks that the configuration has valid values
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' must be between 0 and 65535")
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("config error: 'server.max_body_bytes' must be non-negative")
	}
	if c.Export.LoadTimeout < 0 || c.Export.PrintTimeout < 0 {
		return fmt.Errorf("config error: export timeouts must be non-negative")
	}
	if c.Export.DeviceScaleFactor < 0 {
		return fmt.Errorf("config error: 'export.device_scale_factor' must be non-negative")
	}
	if c.Export.MaxConcurrent < 0 {
		return fmt.Errorf("config error: 'export.max_concurrent' must be non-negative")
	}
	if c.Export.ChromePath != "" {
		if _, err := os.Stat(c.Export.ChromePath); os.IsNotExist(err) {
			return fmt.Errorf("config error: chrome binary not found: %s", c.Export.ChromePath)
		}
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config error: 'log.level' must be debug, info, warn or error")
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("config error: 'log.format' must be text or json")
	}
	if c.RateLimit.DefaultLimit < 0 || c.RateLimit.ExportLimit < 0 || c.RateLimit.ExportBurst < 0 {
		return fmt.Errorf("config error: rate limits must be non-negative")
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
// Bools cannot distinguish unset from false and are not merged.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	mergeString(&result.Server.Host, defaults.Server.Host)
	mergeInt(&result.Server.Port, defaults.Server.Port)
	mergeDuration(&result.Server.ReadTimeout, defaults.Server.ReadTimeout)
	mergeDuration(&result.Server.WriteTimeout, defaults.Server.WriteTimeout)
	mergeDuration(&result.Server.IdleTimeout, defaults.Server.IdleTimeout)
	mergeDuration(&result.Server.ShutdownTimeout, defaults.Server.ShutdownTimeout)
	if result.Server.MaxBodyBytes == 0 {
		result.Server.MaxBodyBytes = defaults.Server.MaxBodyBytes
	}

	mergeString(&result.Export.ChromePath, defaults.Export.ChromePath)
	mergeDuration(&result.Export.LoadTimeout, defaults.Export.LoadTimeout)
	mergeDuration(&result.Export.PrintTimeout, defaults.Export.PrintTimeout)
	mergeDuration(&result.Export.SettleDelay, defaults.Export.SettleDelay)
	if result.Export.ViewportWidth == 0 {
		result.Export.ViewportWidth = defaults.Export.ViewportWidth
	}
	if result.Export.ViewportHeight == 0 {
		result.Export.ViewportHeight = defaults.Export.ViewportHeight
	}
	if result.Export.DeviceScaleFactor == 0 {
		result.Export.DeviceScaleFactor = defaults.Export.DeviceScaleFactor
	}
	if result.Export.PaperWidth == 0 {
		result.Export.PaperWidth = defaults.Export.PaperWidth
	}
	if result.Export.PaperHeight == 0 {
		result.Export.PaperHeight = defaults.Export.PaperHeight
	}
	if result.Export.MaxConcurrent == 0 {
		result.Export.MaxConcurrent = defaults.Export.MaxConcurrent
	}

	mergeString(&result.Render.DefaultTemplate, defaults.Render.DefaultTemplate)
	mergeString(&result.Render.DefaultTheme, defaults.Render.DefaultTheme)
	mergeString(&result.Log.Level, defaults.Log.Level)
	mergeString(&result.Log.Format, defaults.Log.Format)

	mergeInt(&result.RateLimit.DefaultLimit, defaults.RateLimit.DefaultLimit)
	mergeDuration(&result.RateLimit.DefaultWindow, defaults.RateLimit.DefaultWindow)
	mergeInt(&result.RateLimit.ExportLimit, defaults.RateLimit.ExportLimit)
	mergeDuration(&result.RateLimit.ExportWindow, defaults.RateLimit.ExportWindow)
	mergeInt(&result.RateLimit.ExportBurst, defaults.RateLimit.ExportBurst)
	mergeDuration(&result.RateLimit.CleanupInterval, defaults.RateLimit.CleanupInterval)
	mergeString(&result.CORS.AllowedOrigins, defaults.CORS.AllowedOrigins)

	return result
}

// ExportOptions converts the export section into orchestrator options
func (c ExportConfig) ExportOptions() export.Options {
	return export.Options{
		ChromePath:        c.ChromePath,
		LoadTimeout:       c.LoadTimeout,
		PrintTimeout:      c.PrintTimeout,
		SettleDelay:       c.SettleDelay,
		ViewportWidth:     c.ViewportWidth,
		ViewportHeight:    c.ViewportHeight,
		DeviceScaleFactor: c.DeviceScaleFactor,
		MaxConcurrent:     c.MaxConcurrent,
		Print: export.PrintOptions{
			PaperWidth:  c.PaperWidth,
			PaperHeight: c.PaperHeight,
			Scale:       1,
		},
	}
}

// LimiterConfig converts the rate_limit section into limiter configuration
func (c RateLimitConfig) LimiterConfig() *ratelimit.Config {
	return &ratelimit.Config{
		Enabled:         c.Enabled,
		DefaultLimit:    c.DefaultLimit,
		DefaultWindow:   c.DefaultWindow,
		CleanupInterval: c.CleanupInterval,
		IdleTTL:         time.Hour,
		Whitelist:       ratelimit.ParseIPList(c.Whitelist),
		Blacklist:       ratelimit.ParseIPList(c.Blacklist),
		EndpointConfigs: ratelimit.DefaultEndpointConfigs(c.ExportLimit, c.ExportWindow, c.ExportBurst),
	}
}

// Addr returns host:port for net/http
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func mergeString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func mergeInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

func mergeDuration(dst *time.Duration, def time.Duration) {
	if *dst == 0 {
		*dst = def
	}
}
