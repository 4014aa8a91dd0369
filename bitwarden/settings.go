package bitwarden

import (
	"net/http"
	"strings"
	"time"

	"github.com/jonwraymond/bwsproxy/secret"
)

// Production endpoints.
const (
	DefaultIdentityURL = "https://identity.bitwarden.com"
	DefaultAPIURL      = "https://api.bitwarden.com"
)

// DefaultUserAgent is sent on every upstream request.
const DefaultUserAgent = "bwsproxy"

// DeviceTypeSDK is the device type reported by SDK clients.
const DeviceTypeSDK = 21

// Settings configures upstream endpoints and transport.
type Settings struct {
	// IdentityURL is the identity service base URL.
	// Default: https://identity.bitwarden.com
	IdentityURL string

	// APIURL is the API service base URL.
	// Default: https://api.bitwarden.com
	APIURL string

	// UserAgent is the User-Agent header value.
	// Default: "bwsproxy"
	UserAgent string

	// DeviceType is the Device-Type header value.
	// Default: 21 (SDK)
	DeviceType int

	// HTTPClient is shared by every Client built from these settings.
	// If nil, a client with a 30 second timeout is used.
	HTTPClient *http.Client
}

// withDefaults returns a copy of s with defaults applied.
func (s Settings) withDefaults() Settings {
	if s.IdentityURL == "" {
		s.IdentityURL = DefaultIdentityURL
	}
	if s.APIURL == "" {
		s.APIURL = DefaultAPIURL
	}
	s.IdentityURL = strings.TrimRight(s.IdentityURL, "/")
	s.APIURL = strings.TrimRight(s.APIURL, "/")
	if s.UserAgent == "" {
		s.UserAgent = DefaultUserAgent
	}
	if s.DeviceType == 0 {
		s.DeviceType = DeviceTypeSDK
	}
	if s.HTTPClient == nil {
		s.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if s.HTTPClient.Transport == nil {
		// resty fills in a nil Transport on the shared client; do it once here.
		hc := *s.HTTPClient
		hc.Transport = http.DefaultTransport
		s.HTTPClient = &hc
	}
	return s
}

// SessionFactory returns a factory that creates a fresh Client per call.
// All clients share one *http.Client, and nothing else.
func (s Settings) SessionFactory() secret.SessionFactory {
	s = s.withDefaults()
	return func() secret.Session {
		return NewClient(s)
	}
}
