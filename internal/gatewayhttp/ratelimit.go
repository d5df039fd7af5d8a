package gatewayhttp

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/orqestra/campaign-platform/internal/config"
)

// serviceKeyByDownstream maps a routing-table downstream onto the
// rate-limit config's service key, which uses the original services'
// names rather than this repo's internal package names
// (api-gateway/app/rate_limit.py's SERVICE_LIMITS keys).
var serviceKeyByDownstream = map[Downstream]string{
	DownstreamIdentity:   "auth",
	DownstreamCampaigns:  "campaigns",
	DownstreamValidation: "content",
	DownstreamBriefing:   "briefing-enhancer",
}

// limiterKey identifies one token bucket: one client, one
// downstream:path pair.
type limiterKey struct {
	clientIP string
	service  string
}

// RateLimiter enforces spec §4.1's exact-path > service-default >
// global-default resolution order with a per-(client, path) token
// bucket (a service or global default rule still gives each path its own
// bucket), grounded on api-gateway/app/rate_limit.py's get_rate_limit_for_path
// and SlowAPI's keyed-limiter shape.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[limiterKey]*rate.Limiter
	cfg      config.RateLimitConfig
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		buckets: make(map[limiterKey]*rate.Limiter),
		cfg:     config.LoadRateLimitConfig(),
	}
}

// ruleFor resolves the applicable rule for one request path, preferring
// an exact path match, then the downstream service's default, then the
// config's global default.
func (l *RateLimiter) ruleFor(path string, downstream Downstream) config.RateLimitRule {
	if rule, ok := l.cfg.Paths[path]; ok {
		return rule
	}
	if key, ok := serviceKeyByDownstream[downstream]; ok {
		if rule, ok := l.cfg.Services[key]; ok {
			return rule
		}
	}
	return l.cfg.Default
}

func ratePerSecond(rule config.RateLimitRule) rate.Limit {
	if rule.RequestsPerMinute > 0 {
		return rate.Limit(float64(rule.RequestsPerMinute) / 60.0)
	}
	if rule.RequestsPerHour > 0 {
		return rate.Limit(float64(rule.RequestsPerHour) / 3600.0)
	}
	return rate.Inf
}

func burstFor(rule config.RateLimitRule) int {
	if rule.RequestsPerMinute > 0 {
		if rule.RequestsPerMinute < 1 {
			return 1
		}
		return rule.RequestsPerMinute
	}
	if rule.RequestsPerHour > 0 {
		return 1
	}
	return 1
}

// Allow reports whether the request identified by (clientIP, path)
// should proceed, lazily creating the bucket on first use. Disabled
// configs always allow.
func (l *RateLimiter) Allow(clientIP, path string, downstream Downstream) bool {
	if !l.cfg.Enabled {
		return true
	}
	rule := l.ruleFor(path, downstream)
	limit := ratePerSecond(rule)
	if limit == rate.Inf {
		return true
	}

	key := limiterKey{clientIP: clientIP, service: string(downstream) + ":" + path}

	l.mu.Lock()
	lim, ok := l.buckets[key]
	if !ok {
		lim = rate.NewLimiter(limit, burstFor(rule))
		l.buckets[key] = lim
	}
	l.mu.Unlock()

	return lim.Allow()
}

// clientIP extracts the caller's address the same way the original
// gateway's get_client_ip does: the first hop of X-Forwarded-For when
// present, otherwise the TCP peer address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// retryAfter reports the Retry-After header value (seconds) for a
// throttled request, rounding up to at least one second.
func retryAfter(rule config.RateLimitRule) string {
	d := time.Second
	if rule.RequestsPerMinute > 0 {
		d = time.Minute / time.Duration(rule.RequestsPerMinute)
	} else if rule.RequestsPerHour > 0 {
		d = time.Hour / time.Duration(rule.RequestsPerHour)
	}
	secs := int(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
