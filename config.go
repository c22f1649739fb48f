package koala

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// DefaultGraphServer is the host for Graph-style calls.
	DefaultGraphServer = "graph.facebook.com"
	// DefaultRESTServer is the host for REST-style calls.
	DefaultRESTServer = "api.facebook.com"
	// DefaultHTTPTimeout bounds a single HTTP attempt.
	DefaultHTTPTimeout = 30 * time.Second
	// DefaultUserAgent is sent on every request unless overridden.
	DefaultUserAgent = "koala-go"
)

// Config groups the HTTPTransport tunables. Values are taken from environment
// variables with the prefix "KOALA_". Example: KOALA_TIMEOUT=5s KOALA_MAX_ATTEMPTS=1 .
type Config struct {
	GraphServer string `envconfig:"GRAPH_SERVER" default:"graph.facebook.com"`
	RESTServer  string `envconfig:"REST_SERVER"  default:"api.facebook.com"`

	// BaseURL, when set, replaces scheme and host selection for every request.
	BaseURL string `envconfig:"BASE_URL"`

	Timeout   time.Duration `envconfig:"TIMEOUT"    default:"30s"`
	UserAgent string        `envconfig:"USER_AGENT" default:"koala-go"`

	// Retry of network-level failures. HTTP statuses are never retried.
	MaxAttempts int           `envconfig:"MAX_ATTEMPTS" default:"3"`
	BaseBackoff time.Duration `envconfig:"BASE_BACKOFF" default:"100ms"`
	MaxInterval time.Duration `envconfig:"MAX_INTERVAL" default:"2s"`
}

// LoadConfig populates Config from environment variables (prefix KOALA_).
func LoadConfig() (Config, error) {
	var c Config
	if err := envconfig.Process("KOALA", &c); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate fills zero-value defaults and rejects unusable settings.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config cannot be nil")
	}
	if strings.TrimSpace(c.GraphServer) == "" {
		c.GraphServer = DefaultGraphServer
	}
	if strings.TrimSpace(c.RESTServer) == "" {
		c.RESTServer = DefaultRESTServer
	}
	if c.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
			return fmt.Errorf("invalid BaseURL: %w", err)
		}
		c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultHTTPTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 100 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 2 * time.Second
	}
	return nil
}
