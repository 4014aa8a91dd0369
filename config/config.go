// Package config loads and validates bwsproxy's process configuration.
//
// Values come from the environment and may then be overridden from the
// command line before Validate is called.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	"github.com/jonwraymond/bwsproxy/bitwarden"
	"github.com/jonwraymond/bwsproxy/observe"
)

// ServiceName identifies the process in telemetry.
const ServiceName = "bwsproxy"

// Listener defaults.
const (
	DefaultListenAddress = "0.0.0.0"
	DefaultListenPort    = 3030
)

// Config is the process configuration.
type Config struct {
	// Upstream endpoints.
	IdentityURL string `envconfig:"BWS_IDENTITY_URL" default:"https://identity.bitwarden.com" validate:"required,url"`
	APIURL      string `envconfig:"BWS_API_URL" default:"https://api.bitwarden.com" validate:"required,url"`

	// RequestTimeout bounds the upstream exchange of one request.
	RequestTimeout time.Duration `envconfig:"BWSPROXY_REQUEST_TIMEOUT" default:"30s" validate:"gt=0"`

	LogLevel        string  `envconfig:"BWSPROXY_LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	TracesExporter  string  `envconfig:"BWSPROXY_TRACES_EXPORTER" default:"none" validate:"oneof=otlp stdout none"`
	TracesSample    float64 `envconfig:"BWSPROXY_TRACES_SAMPLE" default:"1.0" validate:"gte=0,lte=1"`
	MetricsExporter string  `envconfig:"BWSPROXY_METRICS_EXPORTER" default:"none" validate:"oneof=otlp prometheus stdout none"`

	// Listeners are set from the command line only.
	ListenAddress string `ignored:"true" validate:"required,ip"`
	ListenPort    int    `ignored:"true" validate:"gte=0,lte=65535"`
	HealthAddress string `ignored:"true" validate:"omitempty,ip"`
	HealthPort    int    `ignored:"true" validate:"required_with=HealthAddress,gte=0,lte=65535"`
}

// Load reads the environment and applies listener defaults.
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	c.ListenAddress = DefaultListenAddress
	c.ListenPort = DefaultListenPort
	return c, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field and reports all violations at once.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldErrorMessage(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

func fieldErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "required_with":
		return fe.Field() + " is required when " + fe.Param() + " is set"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value())
	case "ip":
		return fmt.Sprintf("%s must be an IP address, got %q", fe.Field(), fe.Value())
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
	}
}

// ListenAddr returns the primary listener's host:port.
func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.ListenAddress, strconv.Itoa(c.ListenPort))
}

// HealthAddr returns the secondary health listener's host:port. ok is false
// when no health address is configured or it names the primary listener.
func (c Config) HealthAddr() (addr string, ok bool) {
	if c.HealthAddress == "" {
		return "", false
	}
	health, err := netip.ParseAddr(c.HealthAddress)
	if err != nil {
		return "", false
	}
	primary, err := netip.ParseAddr(c.ListenAddress)
	if err == nil && primary.Unmap() == health.Unmap() && c.ListenPort == c.HealthPort {
		return "", false
	}
	return net.JoinHostPort(c.HealthAddress, strconv.Itoa(c.HealthPort)), true
}

// Upstream returns the upstream client settings.
func (c Config) Upstream() bitwarden.Settings {
	return bitwarden.Settings{
		IdentityURL: c.IdentityURL,
		APIURL:      c.APIURL,
	}
}

// Observe returns the telemetry configuration.
func (c Config) Observe(version string) observe.Config {
	return observe.Config{
		ServiceName: ServiceName,
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   c.TracesExporter != "none",
			Exporter:  c.TracesExporter,
			SamplePct: c.TracesSample,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.MetricsExporter != "none",
			Exporter: c.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.LogLevel,
		},
	}
}

// PrometheusEnabled reports whether /metrics should be served.
func (c Config) PrometheusEnabled() bool {
	return c.MetricsExporter == "prometheus"
}
