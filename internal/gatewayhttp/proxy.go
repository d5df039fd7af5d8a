package gatewayhttp

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/orqestra/campaign-platform/internal/apierr"
	"github.com/orqestra/campaign-platform/internal/identitychain"
)

// proxyTimeout bounds one proxied request, matching the original
// gateway's httpx.AsyncClient(timeout=120.0) for ordinary requests (the
// SSE streaming path in sse.go uses its own, longer timeout).
const proxyTimeout = 120 * time.Second

// Config resolves a Downstream to the base URL of the backing service.
type Config struct {
	IdentityURL   string
	CampaignsURL  string
	ValidationURL string
	BriefingURL   string
}

func (c Config) urlFor(d Downstream) string {
	switch d {
	case DownstreamIdentity:
		return c.IdentityURL
	case DownstreamCampaigns:
		return c.CampaignsURL
	case DownstreamValidation:
		return c.ValidationURL
	case DownstreamBriefing:
		return c.BriefingURL
	default:
		return c.CampaignsURL
	}
}

// toHeaderSafe ASCII-encodes a header value the way the Python gateway's
// to_ascii_safe does: values that are already pure ASCII pass through
// unchanged, anything else is base64-encoded and tagged with a
// "base64:" prefix so the receiving service (campaignengine.decodeHeader,
// briefing.decodeHeader, validation.decodeHeader) knows to reverse it.
func toHeaderSafe(v string) string {
	for _, r := range v {
		if r > unicode.MaxASCII {
			return "base64:" + base64.StdEncoding.EncodeToString([]byte(v))
		}
	}
	return v
}

// injectIdentityHeaders sets the X-User-* headers the gateway adds on
// behalf of an authenticated caller before proxying downstream (spec
// §4.1). Unauthenticated requests (skip-auth paths) pass through with no
// identity headers at all.
func injectIdentityHeaders(h http.Header, id *identitychain.Identity) {
	if id == nil {
		return
	}
	h.Set("X-User-Id", toHeaderSafe(id.Subject))
	h.Set("X-User-Email", toHeaderSafe(id.Email))
	h.Set("X-User-Role", toHeaderSafe(string(id.Role)))
	h.Set("X-User-Is-Active", toHeaderSafe(boolString(id.IsActive)))
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// hopByHopRequestHeaders are never forwarded upstream.
var hopByHopRequestHeaders = map[string]bool{
	"Connection":        true,
	"Keep-Alive":        true,
	"Proxy-Authenticate": true,
	"Proxy-Authorization": true,
	"Te":                true,
	"Trailer":           true,
	"Transfer-Encoding": true,
	"Upgrade":           true,
	"Host":              true,
}

// buildUpstreamRequest copies the inbound request onto a new request
// targeting the resolved downstream, stripping hop-by-hop headers and
// adding the identity headers.
func buildUpstreamRequest(ctx context.Context, r *http.Request, targetURL string, body io.Reader, id *identitychain.Identity) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, r.Method, targetURL, body)
	if err != nil {
		return nil, err
	}
	for name, values := range r.Header {
		if hopByHopRequestHeaders[name] {
			continue
		}
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	injectIdentityHeaders(req.Header, id)
	return req, nil
}

// classifyUpstreamFailure turns a transport-level error from the
// upstream call into the apierr.Kind the original gateway's
// except httpx.TimeoutException / httpx.ConnectError / Exception ladder
// maps to (504, 503, 502 respectively).
func classifyUpstreamFailure(err error) *apierr.Error {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apierr.New(apierr.UpstreamTimeout, "upstream service timed out")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apierr.New(apierr.UpstreamTimeout, "upstream service timed out")
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return apierr.New(apierr.UpstreamUnavailable, "upstream service unavailable: "+err.Error())
	}
	return apierr.New(apierr.UpstreamOther, "invalid response from upstream service: "+err.Error())
}

// ProxyRequest performs one proxied call and relays the response back to
// the client, mirroring api-gateway/app/gateway.py's proxy_request. Per
// spec §4.1 the choice between streaming and buffered relay is made on
// the target response's declared Content-Type, not the request path, so
// a single call is issued and the response header decides which relay
// path runs. The deadline is sized to the longer of the two budgets
// (sseTimeout) since that choice isn't known until the response headers
// are already in hand.
func ProxyRequest(w http.ResponseWriter, r *http.Request, client *http.Client, targetURL string, id *identitychain.Identity, production bool) {
	ctx, cancel := context.WithTimeout(r.Context(), sseTimeout)
	defer cancel()

	upstreamReq, err := buildUpstreamRequest(ctx, r, targetURL, r.Body, id)
	if err != nil {
		apierr.WriteJSON(w, apierr.New(apierr.Internal, "failed to build upstream request"))
		return
	}

	resp, err := client.Do(upstreamReq)
	if err != nil {
		if errors.Is(r.Context().Err(), context.Canceled) {
			return // client went away: abort without writing a response
		}
		apierr.WriteJSON(w, classifyUpstreamFailure(err))
		return
	}
	defer resp.Body.Close()

	if isEventStream(resp.Header.Get("Content-Type")) {
		streamResponse(w, resp)
		return
	}
	relayResponse(w, resp, production)
}

// relayResponse copies an upstream response onto the client response,
// stripping hop-by-hop headers and re-emitting Set-Cookie lines one at a
// time (http.Response.Header["Set-Cookie"] already preserves each
// line separately, unlike Python's merged-header default).
func relayResponse(w http.ResponseWriter, resp *http.Response, production bool) {
	cookies := resp.Header.Values(setCookieHeaderName)

	for name, values := range resp.Header {
		if strings.EqualFold(name, setCookieHeaderName) {
			continue
		}
		if isHopByHopResponseHeader(name) {
			continue
		}
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	relayCookies(w, cookies, production)

	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

func isHopByHopResponseHeader(name string) bool {
	for _, h := range hopByHopResponseHeaders {
		if strings.EqualFold(h, name) {
			return true
		}
	}
	return false
}
