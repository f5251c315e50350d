// Package gateway holds the outbound clients of the trip planner: the Google
// Maps directions client, the relay client and the generative-text client.
package gateway

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shiva/wayfarer/internal/metrics"
)

// latencyTrackingRoundTripper records the latency of every outgoing request
// in metrics.OutgoingLatency, labelled by host, method and status.
type latencyTrackingRoundTripper struct {
	next http.RoundTripper
}

func (rt *latencyTrackingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := rt.next.RoundTrip(req)
	duration := time.Since(start).Seconds()

	status := "error"
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}

	// Host only: query strings carry API keys.
	metrics.OutgoingLatency.WithLabelValues(req.URL.Host, req.Method, status).Observe(duration)

	return resp, err
}

// NewPooledClient returns an HTTP client with connection reuse across the
// provider hosts and latency instrumentation. Timeout bounds the whole
// request; callers also pass a context deadline.
func NewPooledClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	return &http.Client{
		Transport: &latencyTrackingRoundTripper{next: transport},
		Timeout:   timeout,
	}
}

// placeholderKeys are values shipped in sample env files.
var placeholderKeys = map[string]struct{}{
	"changeme":          {},
	"your_api_key":      {},
	"your_api_key_here": {},
	"your-api-key":      {},
	"api_key":           {},
	"xxx":               {},
	"todo":              {},
}

// UsableAPIKey reports whether key looks like a real credential: non-empty
// and not a known placeholder.
func UsableAPIKey(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return false
	}
	if _, ok := placeholderKeys[k]; ok {
		return false
	}
	if strings.HasPrefix(k, "your_") || strings.HasPrefix(k, "<") {
		return false
	}
	return true
}
