package http

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

const maxUserAgentLen = 256

// IPConfig lists the proxies whose forwarding headers are believed
type IPConfig struct {
	trusted []*net.IPNet
}

// NewIPConfig parses the trusted proxy CIDR ranges
func NewIPConfig(trustedProxies []string) (*IPConfig, error) {
	cfg := &IPConfig{}
	for _, cidr := range trustedProxies {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", cidr, err)
		}
		cfg.trusted = append(cfg.trusted, ipNet)
	}
	return cfg, nil
}

// ExtractClientIP returns the address of the client that made the request.
//
// Forwarding headers are only consulted when the direct peer is a trusted
// proxy. X-Forwarded-For is walked from the right and the first hop that is
// not itself a trusted proxy wins, so a client cannot prepend a fake address.
func ExtractClientIP(r *http.Request, cfg *IPConfig) string {
	remoteIP := remoteAddr(r)
	if !cfg.isTrusted(remoteIP) {
		return remoteIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if net.ParseIP(hop) == nil {
				continue
			}
			if !cfg.isTrusted(hop) {
				return hop
			}
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}

	return remoteIP
}

// UserAgent returns the request's user agent, truncated for storage in logs
func UserAgent(r *http.Request) string {
	ua := r.UserAgent()
	if len(ua) > maxUserAgentLen {
		return ua[:maxUserAgentLen]
	}
	return ua
}

func remoteAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}

func (c *IPConfig) isTrusted(ip string) bool {
	if c == nil || len(c.trusted) == 0 {
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, n := range c.trusted {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}
