package ratelimit

import (
	"strings"
	"time"
)

// EndpointConfig is the limit applied to one route. A Path ending in "/"
// matches every path below it.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int           // requests per window; 0 means unlimited
	Window time.Duration
	Burst  int // bucket capacity; defaults to Limit
}

// Config holds rate limiting configuration
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration // buckets unused this long are evicted
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultConfig returns an enabled limiter with the default endpoint rules
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       map[string]bool{},
		Blacklist:       map[string]bool{},
		EndpointConfigs: DefaultEndpointConfigs(10, time.Minute, 3),
	}
}

// DefaultEndpointConfigs returns the per-route rules. Every export route
// launches a browser, so they share the export limit; rendering is cheap
// and gets a looser one.
func DefaultEndpointConfigs(exportLimit int, exportWindow time.Duration, exportBurst int) []EndpointConfig {
	return []EndpointConfig{
		// Tier 1: browser sessions
		{Path: "/export/", Method: "POST", Limit: exportLimit, Window: exportWindow, Burst: exportBurst},

		// Tier 2: CPU-only work
		{Path: "/render", Method: "POST", Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/suggestions/", Method: "POST", Limit: 300, Window: time.Minute, Burst: 50},

		// Tier 3: reads use the default limit
		// Tier 4: health check is unlimited, see MatchEndpoint
	}
}

// ParseIPList parses a comma-separated list of IP addresses into a set
func ParseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
