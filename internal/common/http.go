package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the best guess of the caller address: the first valid
// X-Forwarded-For hop, then X-Real-IP, then the connection peer.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := validIP(first); ip != "" {
			return ip
		}
	}
	if ip := validIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func validIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if net.ParseIP(raw) == nil {
		return ""
	}
	return raw
}
