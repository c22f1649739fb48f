package koala

// This file holds the functional options for New and for individual calls.

// Option configures a Client during New.
type Option func(*Client) error

// WithTransport injects the Transport used for every call. This is the
// substitution point for tests and for custom HTTP stacks.
func WithTransport(t Transport) Option {
	return func(c *Client) error {
		if t == nil {
			return ErrNilTransport
		}
		c.transport = t
		return nil
	}
}

// WithHTTPTransportConfig builds the default HTTPTransport from cfg instead
// of the environment. It has no effect when WithTransport is also given.
func WithHTTPTransportConfig(cfg Config) Option {
	return func(c *Client) error {
		c.httpConfig = &cfg
		return nil
	}
}

// callSettings collects everything a single API call can be tuned with.
type callSettings struct {
	request RequestOptions
	hook    func(any)
}

// CallOption tunes a single API call.
type CallOption func(*callSettings)

// WithHTTPComponent makes API return the named Response field instead of
// the decoded body. Status checking and JSON decoding are skipped.
func WithHTTPComponent(comp Component) CallOption {
	return func(s *callSettings) { s.request.HTTPComponent = comp }
}

// WithResultHook registers fn to be called once with the decoded body before
// API returns. It lets callers inspect the result; it cannot change it.
func WithResultHook(fn func(any)) CallOption {
	return func(s *callSettings) { s.hook = fn }
}

// WithRESTAPI sends the call to the REST server.
func WithRESTAPI() CallOption {
	return func(s *callSettings) { s.request.RESTAPI = true }
}

// WithBeta sends the call to the beta tier.
func WithBeta() CallOption {
	return func(s *callSettings) { s.request.Beta = true }
}

// WithVideo sends the call to the video upload host.
func WithVideo() CallOption {
	return func(s *callSettings) { s.request.Video = true }
}

// WithSSL forces https for the call.
func WithSSL() CallOption {
	return func(s *callSettings) { s.request.UseSSL = true }
}
