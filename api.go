package koala

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// accessTokenParam is the query/form key the remote API reads the token from.
const accessTokenParam = "access_token"

// API performs one call against the remote API and returns the decoded JSON
// body (map[string]any, []any, string, float64, bool or nil).
//
// The path gets a leading "/" when missing. params is never modified; the
// Transport receives a copy that carries access_token when the Client has
// one. An empty method means GET.
//
// When WithHTTPComponent is given the requested Response field is returned
// as-is. Otherwise a status >= 500 yields an *APIError, and decode failures
// are returned from encoding/json unchanged apart from wrapping.
func (c *Client) API(ctx context.Context, path string, params map[string]string, method string, opts ...CallOption) (any, error) {
	var s callSettings
	for _, opt := range opts {
		opt(&s)
	}

	path = normalizePath(path)
	method = normalizeMethod(method)
	args := c.mergeParams(params)
	callID := uuid.NewString()

	log.Debug().
		Str("call_id", callID).
		Str("method", method).
		Str("path", path).
		Bool("authenticated", c.accessToken != "").
		Msg("api call")

	resp, err := c.transport.MakeRequest(ctx, path, args, method, s.request)
	if err != nil {
		callsTotal.WithLabelValues(method, outcomeTransport).Inc()
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp == nil {
		callsTotal.WithLabelValues(method, outcomeTransport).Inc()
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrNilResponse)
	}

	if s.request.HTTPComponent != ComponentNone {
		callsTotal.WithLabelValues(method, outcomeComponent).Inc()
		return resp.Component(s.request.HTTPComponent)
	}

	if resp.Status >= http.StatusInternalServerError {
		apiErrorsTotal.WithLabelValues(statusLabel(resp.Status)).Inc()
		callsTotal.WithLabelValues(method, outcomeAPIError).Inc()
		log.Warn().
			Str("call_id", callID).
			Str("method", method).
			Str("path", path).
			Int("status", resp.Status).
			Msg("api server error")
		return nil, newAPIError(resp)
	}

	result, err := decodeBody(resp.Body)
	if err != nil {
		callsTotal.WithLabelValues(method, outcomeDecode).Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}

	log.Debug().
		Str("call_id", callID).
		Int("status", resp.Status).
		Msg("api call completed")
	callsTotal.WithLabelValues(method, outcomeOK).Inc()

	if s.hook != nil {
		s.hook(result)
	}
	return result, nil
}

// Get is API with the GET method.
func (c *Client) Get(ctx context.Context, path string, params map[string]string, opts ...CallOption) (any, error) {
	return c.API(ctx, path, params, http.MethodGet, opts...)
}

// Post is API with the POST method.
func (c *Client) Post(ctx context.Context, path string, params map[string]string, opts ...CallOption) (any, error) {
	return c.API(ctx, path, params, http.MethodPost, opts...)
}

// Delete is API with the DELETE method.
func (c *Client) Delete(ctx context.Context, path string, params map[string]string, opts ...CallOption) (any, error) {
	return c.API(ctx, path, params, http.MethodDelete, opts...)
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}

func normalizeMethod(method string) string {
	method = strings.TrimSpace(method)
	if method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(method)
}

// mergeParams copies params and adds the access token, if any.
func (c *Client) mergeParams(params map[string]string) map[string]string {
	args := make(map[string]string, len(params)+1)
	for k, v := range params {
		args[k] = v
	}
	if c.accessToken != "" {
		args[accessTokenParam] = c.accessToken
	}
	return args
}

// decodeBody parses a response body. An empty body decodes to nil. A
// single-element array is unwrapped to its element: some endpoints wrap
// scalar answers that way.
func decodeBody(body string) (any, error) {
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}

	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return nil, err
	}

	if arr, ok := v.([]any); ok && len(arr) == 1 {
		return arr[0], nil
	}
	return v, nil
}
