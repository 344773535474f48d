package middleware

import (
	"net"
	"net/http"
	"strings"
)

// HSTS adds Strict-Transport-Security to every response.
func HSTS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}

// RequireHTTPS redirects plain HTTP requests to HTTPS. Hosts outside
// allowedHosts are refused rather than redirected.
func RequireHTTPS(allowedHosts []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				next.ServeHTTP(w, r)
				return
			}
			if !IsHostAllowed(r.Host, allowedHosts) {
				http.Error(w, "Host not allowed", http.StatusBadRequest)
				return
			}
			http.Redirect(w, r, "https://"+r.Host+r.RequestURI, http.StatusMovedPermanently)
		})
	}
}

// IsHostAllowed reports whether host names one of allowedHosts. Ports and
// IPv6 brackets are ignored on both sides. An empty list allows every host.
func IsHostAllowed(host string, allowedHosts []string) bool {
	if len(allowedHosts) == 0 {
		return true
	}
	want := hostname(host)
	for _, allowed := range allowedHosts {
		if hostname(allowed) == want {
			return true
		}
	}
	return false
}

func hostname(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return strings.Trim(s, "[]")
}
