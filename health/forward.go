package health

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Path is the route health probes are served on.
const Path = "/_health"

// DefaultForwardTimeout bounds a forwarded probe when ForwarderConfig.Timeout is unset.
const DefaultForwardTimeout = 5 * time.Second

// ForwarderConfig configures a Forwarder.
type ForwarderConfig struct {
	// Target is the base URL of the listener to probe, e.g. "http://127.0.0.1:3030".
	Target string

	// Timeout bounds one forwarded probe.
	// Default: 5 seconds
	Timeout time.Duration

	// HTTPClient is the underlying client. Default: a new client.
	HTTPClient *http.Client
}

// Forwarder is a Checker that relays another listener's health endpoint.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Context: honors cancellation and the configured timeout.
//   - Errors: transport and body read failures are reported in Result.Error
//     wrapping ErrForwardFailed; any upstream status is relayed as-is.
type Forwarder struct {
	url    string
	client *resty.Client
}

// NewForwarder creates a Forwarder probing cfg.Target + Path.
func NewForwarder(cfg ForwarderConfig) (*Forwarder, error) {
	if cfg.Target == "" {
		return nil, ErrMissingTarget
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultForwardTimeout
	}

	var client *resty.Client
	if cfg.HTTPClient != nil {
		c := *cfg.HTTPClient
		if c.Transport == nil {
			c.Transport = http.DefaultTransport
		}
		client = resty.NewWithClient(&c)
	} else {
		client = resty.New()
	}
	client.SetTimeout(cfg.Timeout).SetDisableWarn(true)

	return &Forwarder{
		url:    strings.TrimRight(cfg.Target, "/") + Path,
		client: client,
	}, nil
}

// Name returns the name of this checker.
func (f *Forwarder) Name() string {
	return "forward"
}

// URL returns the probed URL.
func (f *Forwarder) URL() string {
	return f.url
}

// Check forwards a GET and relays the response status and body.
func (f *Forwarder) Check(ctx context.Context) Result {
	start := time.Now()
	resp, err := f.client.R().SetContext(ctx).Get(f.url)
	if err != nil {
		return Failed(fmt.Errorf("%w: %w", ErrForwardFailed, err)).WithDuration(time.Since(start))
	}
	return Result{Status: resp.StatusCode(), Body: resp.Body()}.WithDuration(time.Since(start))
}

// ForwardTarget returns the base URL used to reach a listener bound to host
// and port. Unspecified addresses are reached through the loopback address.
func ForwardTarget(host string, port int) string {
	if host == "" {
		host = "127.0.0.1"
	} else if ip := net.ParseIP(host); ip != nil && ip.IsUnspecified() {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}

var _ Checker = (*Forwarder)(nil)
