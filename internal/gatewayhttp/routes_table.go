package gatewayhttp

import "strings"

// Downstream identifies a backing service by name; Config resolves each
// to a base URL.
type Downstream string

const (
	DownstreamIdentity   Downstream = "identity"
	DownstreamCampaigns  Downstream = "campaigns"
	DownstreamValidation Downstream = "validation"
	DownstreamBriefing   Downstream = "briefing"
)

type routeRule struct {
	prefix     string
	downstream Downstream
}

// routingTable is evaluated top to bottom (spec §4.1); the first
// matching prefix wins, and unmatched requests default to campaigns.
var routingTable = []routeRule{
	{"/api/auth", DownstreamIdentity},
	{"/api/campaigns", DownstreamCampaigns},
	{"/api/ai/analyze-piece", DownstreamValidation},
	{"/api/ai/generate-text", DownstreamValidation},
	{"/api/ai-interactions", DownstreamBriefing},
	{"/api/enhance-objective", DownstreamBriefing},
	{"/api/ai", DownstreamBriefing},
}

// resolveDownstream returns which backend a request path routes to.
func resolveDownstream(path string) Downstream {
	for _, rule := range routingTable {
		if strings.HasPrefix(path, rule.prefix) {
			return rule.downstream
		}
	}
	return DownstreamCampaigns
}

// skipAuthPaths is the enumerated set of (method, path) pairs that never
// require authentication (spec §4.1).
var skipAuthPaths = map[string]bool{
	"POST /api/auth/login":    true,
	"POST /api/auth/register": true,
	"POST /api/auth/refresh":  true,
	"GET /api/health":         true,
	"GET /":                   true,
}

func isSkipAuth(method, path string) bool {
	return skipAuthPaths[method+" "+path]
}

// hopByHopResponseHeaders are stripped from the proxied response
// (spec §4.1).
var hopByHopResponseHeaders = []string{"Connection", "Keep-Alive", "Transfer-Encoding", "Upgrade"}

// allowedProxyMethods is the method allow-list on the proxy path.
var allowedProxyMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true, "DELETE": true, "OPTIONS": true,
}
