package koala

import "context"

// RequestOptions carries per-call settings to the Transport. The Client only
// interprets HTTPComponent; the remaining flags select the remote server and
// are left to the Transport.
type RequestOptions struct {
	// HTTPComponent, when set, makes the Client return that Response field
	// instead of the decoded body.
	HTTPComponent Component

	// RESTAPI targets the REST server instead of the Graph server.
	RESTAPI bool
	// Beta targets the beta tier of the selected server.
	Beta bool
	// Video targets the video upload host of the selected server.
	Video bool
	// UseSSL forces https even when no access token is present.
	UseSSL bool
}

// Transport performs the network I/O for a Client. Implementations must
// return a fully-buffered Response; any status code is a valid Response and
// only failures to obtain one are errors.
type Transport interface {
	MakeRequest(ctx context.Context, path string, params map[string]string, method string, opts RequestOptions) (*Response, error)
}

// TransportFunc adapts a function to a Transport.
type TransportFunc func(ctx context.Context, path string, params map[string]string, method string, opts RequestOptions) (*Response, error)

// MakeRequest implements Transport for TransportFunc.
func (f TransportFunc) MakeRequest(ctx context.Context, path string, params map[string]string, method string, opts RequestOptions) (*Response, error) {
	return f(ctx, path, params, method, opts)
}
