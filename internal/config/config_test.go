package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validYAML = `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: "5s"
export:
  load_timeout: "10s"
  settle_delay: "250ms"
  device_scale_factor: 1.5
  max_concurrent: 4
render:
  default_template: "template-2"
log:
  level: "debug"
  format: "json"
rate_limit:
  export_limit: 5
  whitelist: "10.0.0.1, 10.0.0.2"
`

func TestLoadConfig_ValidYAML(t *testing.T) {
	cfg, err := LoadConfig(writeYAML(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout, "unset keys take env-default")
	assert.Equal(t, 10*time.Second, cfg.Export.LoadTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Export.SettleDelay)
	assert.Equal(t, 1.5, cfg.Export.DeviceScaleFactor)
	assert.Equal(t, int64(4), cfg.Export.MaxConcurrent)
	assert.Equal(t, "template-2", cfg.Render.DefaultTemplate)
	assert.Equal(t, "blue", cfg.Render.DefaultTheme)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5, cfg.RateLimit.ExportLimit)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadConfig_EnvOverridesYAML(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("EXPORT_LOAD_TIMEOUT", "45s")

	cfg, err := LoadConfig(writeYAML(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 45*time.Second, cfg.Export.LoadTimeout)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	cfg, err := LoadConfig(writeYAML(t, "server: [unclosed"))

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")

	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	_, err := LoadConfig(writeYAML(t, "log:\n  level: \"loud\"\n"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestLoad_EnvOnlyMatchesDefault(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("CHROME_PATH", "")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Default(), *cfg)
}

func TestLoad_ExplicitMissingPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ExplicitPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeYAML(t, validYAML))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"default is valid", func(*Config) {}, ""},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"negative timeout", func(c *Config) { c.Export.LoadTimeout = -time.Second }, "timeouts"},
		{"negative concurrency", func(c *Config) { c.Export.MaxConcurrent = -1 }, "max_concurrent"},
		{"missing chrome", func(c *Config) { c.Export.ChromePath = "/nonexistent/chrome" }, "chrome binary not found"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"negative rate limit", func(c *Config) { c.RateLimit.ExportBurst = -1 }, "rate limits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	partial := Config{
		Server: ServerConfig{Port: 9000},
		Export: ExportConfig{LoadTimeout: 5 * time.Second},
		Log:    LogConfig{Level: "debug"},
	}

	merged := partial.MergeWithDefaults(Default())

	assert.Equal(t, 9000, merged.Server.Port)
	assert.Equal(t, "0.0.0.0", merged.Server.Host)
	assert.Equal(t, 5*time.Second, merged.Export.LoadTimeout)
	assert.Equal(t, 30*time.Second, merged.Export.PrintTimeout)
	assert.Equal(t, "debug", merged.Log.Level)
	assert.Equal(t, "text", merged.Log.Format)
	assert.Equal(t, "template-1", merged.Render.DefaultTemplate)
	assert.Equal(t, 0, partial.RateLimit.DefaultLimit, "receiver is not modified")
}

func TestExportOptions(t *testing.T) {
	opts := Default().Export.ExportOptions()

	assert.Equal(t, 30*time.Second, opts.LoadTimeout)
	assert.Equal(t, 500*time.Millisecond, opts.SettleDelay)
	assert.Equal(t, int64(794), opts.ViewportWidth)
	assert.Equal(t, int64(1123), opts.ViewportHeight)
	assert.Equal(t, 2.0, opts.DeviceScaleFactor)
	assert.Equal(t, 8.27, opts.Print.PaperWidth)
	assert.Equal(t, 11.69, opts.Print.PaperHeight)
	assert.Equal(t, 1.0, opts.Print.Scale)
}

func TestLimiterConfig(t *testing.T) {
	rl := Default().RateLimit
	rl.Whitelist = "10.0.0.1"

	lc := rl.LimiterConfig()

	assert.True(t, lc.Enabled)
	assert.True(t, lc.Whitelist["10.0.0.1"])
	require.NotEmpty(t, lc.EndpointConfigs)
	assert.Equal(t, "/export/", lc.EndpointConfigs[0].Path)
	assert.Equal(t, 10, lc.EndpointConfigs[0].Limit)
	assert.Equal(t, 3, lc.EndpointConfigs[0].Burst)
}

func TestServerAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8081", ServerConfig{Host: "127.0.0.1", Port: 8081}.Addr())
}
