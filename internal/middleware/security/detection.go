package security

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"remitledger/internal/log"
)

const (
	maxURLLength    = 2048
	maxForwardedHop = 6
)

var (
	probeFragments = []string{
		"../", "..\\", ".env", ".git", ".ssh", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", "etc/passwd", "cmd.exe",
		"<script", "javascript:", "eval(", "union select",
	}
	scannerAgents  = []string{"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan", "zgrab"}
	blockedMethods = map[string]bool{"TRACE": true, "TRACK": true, "DEBUG": true, "CONNECT": true}
)

// Stats counts what the Detector has seen since start.
type Stats struct {
	Rejected   int64
	BadAddress int64
}

// Detector turns away requests that look like vulnerability probes and
// resolves the client address, trusting forwarding headers only from
// private or loopback peers.
type Detector struct {
	mu      sync.RWMutex
	trusted []netip.Prefix

	rejected   atomic.Int64
	badAddress atomic.Int64
}

func NewDetector() *Detector {
	return &Detector{
		trusted: []netip.Prefix{
			netip.MustParsePrefix("127.0.0.0/8"),
			netip.MustParsePrefix("10.0.0.0/8"),
			netip.MustParsePrefix("172.16.0.0/12"),
			netip.MustParsePrefix("192.168.0.0/16"),
			netip.MustParsePrefix("::1/128"),
		},
	}
}

// TrustProxy adds a CIDR whose peers may set X-Forwarded-For and X-Real-IP.
func (d *Detector) TrustProxy(cidr string) error {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return fmt.Errorf("invalid proxy CIDR %q: %w", cidr, err)
	}
	d.mu.Lock()
	d.trusted = append(d.trusted, prefix.Masked())
	d.mu.Unlock()
	return nil
}

// Inspect returns a short reason when r looks hostile, or "" when it is fine.
func (d *Detector) Inspect(r *http.Request) string {
	reason := inspect(r)
	if reason != "" {
		d.rejected.Add(1)
	}
	return reason
}

func inspect(r *http.Request) string {
	if blockedMethods[r.Method] {
		return "method"
	}
	if len(r.URL.String()) > maxURLLength {
		return "url_length"
	}
	query, err := url.QueryUnescape(r.URL.RawQuery)
	if err != nil {
		query = r.URL.RawQuery
	}
	if hasFragment(r.URL.Path, probeFragments) || hasFragment(query, probeFragments) {
		return "probe"
	}
	if hasFragment(r.Header.Get("User-Agent"), scannerAgents) {
		return "scanner"
	}
	if strings.Count(r.Header.Get("X-Forwarded-For"), ",") >= maxForwardedHop {
		return "forwarded_chain"
	}
	return ""
}

func hasFragment(s string, fragments []string) bool {
	s = strings.ToLower(s)
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

// Middleware answers flagged requests with a bare 400.
func (d *Detector) Middleware(logger *log.Logger) func(http.Handler) http.Handler {
	logger = logger.WithComponent(log.ComponentSecurity)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reason := d.Inspect(r)
			if reason == "" {
				next.ServeHTTP(w, r)
				return
			}
			fields := log.NewFields().
				WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
				WithClientIP(d.ClientIP(r))
			fields["reason"] = reason
			logger.WarnContext(r.Context(), "Suspicious request rejected", fields.Args()...)
			http.Error(w, "Bad request", http.StatusBadRequest)
		})
	}
}

// ClientIP resolves the address the request came from. Forwarding headers
// are honoured only when the direct peer is trusted and the value parses.
func (d *Detector) ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil {
		d.badAddress.Add(1)
		return host
	}
	if !d.isTrusted(peer.Unmap()) {
		return host
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		first = strings.TrimSpace(first)
		if _, err := netip.ParseAddr(first); err == nil {
			return first
		}
		d.badAddress.Add(1)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if _, err := netip.ParseAddr(xri); err == nil {
			return xri
		}
	}
	return host
}

func (d *Detector) isTrusted(addr netip.Addr) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, p := range d.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func (d *Detector) Stats() Stats {
	return Stats{Rejected: d.rejected.Load(), BadAddress: d.badAddress.Load()}
}
