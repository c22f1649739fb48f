// Package koala is a small client for a social-graph web API. A Client holds
// an optional access token and turns API calls into requests on an injected
// Transport, decoding the JSON responses.
package koala

import (
	"fmt"
)

// --------------------------------------------------------------------
// Client core
// --------------------------------------------------------------------

// Client issues calls against the remote API. It holds no mutable state, so
// a single Client may be shared between goroutines.
type Client struct {
	accessToken string
	transport   Transport

	httpConfig *Config // used only when no Transport is injected
}

// New constructs a Client. The access token is optional and stored as given;
// an empty token means calls are made anonymously.
//
// Without WithTransport the Client talks to the network through an
// HTTPTransport configured from the environment (see LoadConfig).
func New(accessToken string, opts ...Option) (*Client, error) {
	c := &Client{accessToken: accessToken}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.transport == nil {
		cfg := c.httpConfig
		if cfg == nil {
			loaded, err := LoadConfig()
			if err != nil {
				return nil, fmt.Errorf("load transport config: %w", err)
			}
			cfg = &loaded
		}
		t, err := NewHTTPTransport(*cfg)
		if err != nil {
			return nil, err
		}
		c.transport = t
	}
	c.httpConfig = nil

	return c, nil
}

// AccessToken returns the token the Client was constructed with.
func (c *Client) AccessToken() string { return c.accessToken }
