package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// TrustedRealIP rewrites RemoteAddr to the client address from X-Real-IP or
// the first X-Forwarded-For entry, but only for connections from one of
// trustedCIDRs. Otherwise RemoteAddr is reduced to its host part. Plain IPs
// are accepted as single-host networks.
func TrustedRealIP(trustedCIDRs []string) func(http.Handler) http.Handler {
	trusted := parseNetworks(trustedCIDRs)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remote := extractIP(r.RemoteAddr)
			if remote != nil {
				r.RemoteAddr = remote.String()
			}
			if isTrusted(remote, trusted) {
				if ip := forwardedIP(r.Header); ip != nil {
					r.RemoteAddr = ip.String()
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parseNetworks(cidrs []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, cidr := range cidrs {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		if _, network, err := net.ParseCIDR(cidr); err == nil {
			nets = append(nets, network)
			continue
		}
		ip := net.ParseIP(cidr)
		if ip == nil {
			slog.Warn("realip: invalid trusted proxy, skipping", "cidr", cidr)
			continue
		}
		bits := 128
		if ip.To4() != nil {
			ip, bits = ip.To4(), 32
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets
}

// forwardedIP returns the client address a proxy reported, or nil.
func forwardedIP(h http.Header) net.IP {
	if rip := strings.TrimSpace(h.Get("X-Real-IP")); rip != "" {
		return net.ParseIP(rip)
	}
	xff := h.Get("X-Forwarded-For")
	if xff == "" {
		return nil
	}
	first, _, _ := strings.Cut(xff, ",")
	return net.ParseIP(strings.TrimSpace(first))
}

// extractIP parses an IP address from a host:port string or plain IP.
func extractIP(addr string) net.IP {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(addr)
}

func isTrusted(ip net.IP, trusted []*net.IPNet) bool {
	if ip == nil {
		return false
	}
	for _, network := range trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
