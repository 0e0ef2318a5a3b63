package acmeclient

import "net/http"

// Option configures a Client during initialization.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for CA round-trips. Useful for
// custom timeouts, proxies, or pointing tests at an in-process CA.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.ac.HTTPClient = hc
	}
}

// WithUserAgent overrides the User-Agent sent to the CA.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.ac.UserAgent = ua
	}
}
