package http

import (
	"net"
	"net/http"
	"strings"

	"github.com/utafrali/IdentityGo/internal/domain"
)

// clientInfo extracts the caller's IP and user agent. Proxy headers are
// checked in order of trust: CF-Connecting-IP, X-Forwarded-For (first hop),
// X-Real-IP, then the socket address.
func clientInfo(r *http.Request) domain.ClientInfo {
	return domain.ClientInfo{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
