package ratelimit

import "strings"

// unlimited is returned for routes that are never rate limited
var unlimited = EndpointConfig{Path: "/health", Method: "GET"}

// MatchEndpoint returns the rule for path and method, or nil when only the
// default limit applies. Exact rules win over prefix rules; among prefix
// rules the longest prefix wins.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if path == unlimited.Path && method == unlimited.Method {
		rule := unlimited
		return &rule
	}

	var best *EndpointConfig
	for i := range configs {
		rule := &configs[i]
		if rule.Method != method {
			continue
		}
		if rule.Path == path {
			return rule
		}
		if strings.HasSuffix(rule.Path, "/") && strings.HasPrefix(path, rule.Path) {
			if best == nil || len(rule.Path) > len(best.Path) {
				best = rule
			}
		}
	}
	return best
}
