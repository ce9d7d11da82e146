package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// RealIP sets the real client IP into Gin context (key: "real_ip").
// Forwarding headers are only honored when the direct peer is one of
// trustedProxies (IPs or CIDRs), the same list given to gin's SetTrustedProxies.
// Priority:
// 1) CF-Connecting-IP (Cloudflare), from a trusted peer
// 2) c.ClientIP(): X-Forwarded-For / X-Real-IP walked back through trusted hops
// 3) the peer address
func RealIP(trustedProxies []string) gin.HandlerFunc {
	trusted := parseNets(trustedProxies)
	return func(c *gin.Context) {
		c.Set("real_ip", resolveIP(c, trusted))
		c.Next()
	}
}

func resolveIP(c *gin.Context, trusted []*net.IPNet) string {
	if peer := net.ParseIP(c.RemoteIP()); peer != nil && inNets(trusted, peer) {
		if ip := parseIP(c.GetHeader("CF-Connecting-IP")); ip != "" {
			return ip
		}
	}
	return c.ClientIP()
}

func parseNets(entries []string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if !strings.Contains(e, "/") {
			ip := net.ParseIP(e)
			if ip == nil {
				continue
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		if _, n, err := net.ParseCIDR(e); err == nil {
			nets = append(nets, n)
		}
	}
	return nets
}

func inNets(nets []*net.IPNet, ip net.IP) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func parseIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}
