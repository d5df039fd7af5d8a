package gatewayhttp

import (
	"net/http"
	"strconv"
	"strings"
)

// setCookieHeaderName is the pseudo-header the Python gateway stashes
// every upstream Set-Cookie line under before re-emitting them one at a
// time (httpx collapses repeated response headers into a single comma
// joined value, which breaks Set-Cookie's own comma-bearing Expires
// attribute — so upstream responses are read with the multi-value API
// and re-split here instead of naively splitting on ",").
const setCookieHeaderName = "Set-Cookie"

// relayCookies re-parses each upstream Set-Cookie line and re-emits it on
// the client response, forcing Secure when running in production
// regardless of what the upstream set, matching main.py's gateway()
// cookie-relay loop.
func relayCookies(w http.ResponseWriter, upstreamCookies []string, production bool) {
	for _, raw := range upstreamCookies {
		c := parseSetCookie(raw)
		if c == nil {
			w.Header().Add(setCookieHeaderName, raw)
			continue
		}
		if production {
			c.Secure = true
		}
		http.SetCookie(w, c)
	}
}

// parseSetCookie parses one Set-Cookie line into a *http.Cookie, falling
// back to nil (caller re-emits the raw line verbatim) only when the line
// has no name=value pair. Of the attributes, only HttpOnly, Secure, Path,
// Domain, Max-Age and SameSite are carried over; any other attribute
// (Expires, Partitioned, ...) is dropped from the re-emitted cookie.
func parseSetCookie(raw string) *http.Cookie {
	parts := strings.Split(raw, ";")
	if len(parts) == 0 {
		return nil
	}
	nameValue := strings.SplitN(strings.TrimSpace(parts[0]), "=", 2)
	if len(nameValue) != 2 {
		return nil
	}
	c := &http.Cookie{Name: strings.TrimSpace(nameValue[0]), Value: nameValue[1]}

	for _, attr := range parts[1:] {
		attr = strings.TrimSpace(attr)
		lower := strings.ToLower(attr)
		switch {
		case lower == "httponly":
			c.HttpOnly = true
		case lower == "secure":
			c.Secure = true
		case strings.HasPrefix(lower, "path="):
			c.Path = attr[len("path="):]
		case strings.HasPrefix(lower, "domain="):
			c.Domain = attr[len("domain="):]
		case strings.HasPrefix(lower, "max-age="):
			if n, err := strconv.Atoi(attr[len("max-age="):]); err == nil {
				c.MaxAge = n
			}
		case strings.HasPrefix(lower, "samesite="):
			switch strings.ToLower(attr[len("samesite="):]) {
			case "strict":
				c.SameSite = http.SameSiteStrictMode
			case "lax":
				c.SameSite = http.SameSiteLaxMode
			case "none":
				c.SameSite = http.SameSiteNoneMode
			}
		}
	}
	return c
}
