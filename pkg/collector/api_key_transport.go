package collector

import (
	"crypto/tls"
	"net/http"
)

// ApiKeyTransport is a http.RoundTripper that authenticates all requests
// with the agent's shared-secret header.
type ApiKeyTransport struct {
	http.RoundTripper
	ApiKey    string
	UserAgent string
	Insecure  bool
}

// RoundTrip executes a single HTTP transaction with the API key header set.
func (t *ApiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("X-Api-Key", t.ApiKey)
	if t.UserAgent != "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}

	rt := t.RoundTripper
	if rt == nil {
		rt = http.DefaultTransport
	}

	if t.Insecure {
		if transport, ok := rt.(*http.Transport); ok {
			transportCopy := transport.Clone()
			// #nosec G402 -- TLS certificate verification is intentionally configurable via YAML config.
			transportCopy.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
			rt = transportCopy
		}
	}

	return rt.RoundTrip(req)
}
