package koala

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/gmccreight/koala/internal/errors"
	"github.com/gmccreight/koala/internal/graphtest"
)

func newTestTransport(t *testing.T, baseURL string) *HTTPTransport {
	t.Helper()
	tr, err := NewHTTPTransport(Config{
		BaseURL:     baseURL,
		Timeout:     2 * time.Second,
		MaxAttempts: 3,
		BaseBackoff: time.Millisecond,
		MaxInterval: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	return tr
}

func TestHTTPTransport_GetUsesQueryString(t *testing.T) {
	srv := graphtest.New()
	defer srv.Close()
	srv.HandleJSON(http.MethodGet, "/me", map[string]string{"id": "4"})

	tr := newTestTransport(t, srv.URL)
	resp, err := tr.MakeRequest(context.Background(), "/me", map[string]string{"fields": "id", "access_token": "tok"}, "get", RequestOptions{})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `{"id":"4"}`, resp.Body)
	assert.Equal(t, "application/json", resp.Headers.Get("Content-Type"))

	last, ok := srv.Last()
	require.True(t, ok)
	assert.Equal(t, http.MethodGet, last.Method)
	assert.Equal(t, "id", last.Query.Get("fields"))
	assert.Equal(t, "tok", last.Query.Get("access_token"))
	assert.NotEmpty(t, last.Header.Get("X-Request-Id"))
	assert.Equal(t, DefaultUserAgent, last.Header.Get("User-Agent"))
}

func TestHTTPTransport_PostUsesForm(t *testing.T) {
	srv := graphtest.New()
	defer srv.Close()
	srv.HandleJSON(http.MethodPost, "/me/feed", map[string]string{"id": "4_1"})

	tr := newTestTransport(t, srv.URL)
	resp, err := tr.MakeRequest(context.Background(), "/me/feed", map[string]string{"message": "hello"}, "POST", RequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)

	last, _ := srv.Last()
	assert.Equal(t, http.MethodPost, last.Method)
	assert.Equal(t, "hello", last.Form.Get("message"))
	assert.Empty(t, last.Form.Get("method"))
	assert.Empty(t, last.Query)
}

func TestHTTPTransport_OtherVerbsTunnelThroughPost(t *testing.T) {
	srv := graphtest.New()
	defer srv.Close()
	srv.Handle(http.MethodPost, "/4_1", graphtest.Reply{Body: "true"})

	tr := newTestTransport(t, srv.URL)
	for _, verb := range []string{"delete", "PUT"} {
		resp, err := tr.MakeRequest(context.Background(), "/4_1", nil, verb, RequestOptions{})
		require.NoError(t, err)
		assert.Equal(t, "true", resp.Body)

		last, _ := srv.Last()
		assert.Equal(t, http.MethodPost, last.Method)
		assert.Equal(t, strings.ToLower(verb), last.Form.Get("method"))
	}
}

func TestHTTPTransport_ServerErrorIsNotRetried(t *testing.T) {
	srv := graphtest.New()
	defer srv.Close()
	srv.Handle(http.MethodGet, "/boom", graphtest.Reply{Status: http.StatusInternalServerError, Body: "oops"})

	tr := newTestTransport(t, srv.URL)
	resp, err := tr.MakeRequest(context.Background(), "/boom", nil, "get", RequestOptions{})
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, "oops", resp.Body)
	assert.Len(t, srv.Requests(), 1)
}

func TestHTTPTransport_NetworkFailureIsRetried(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	url := dead.URL
	dead.Close()

	tr := newTestTransport(t, url)
	before := testutil.ToFloat64(transportRetriesTotal)

	_, err := tr.MakeRequest(context.Background(), "/me", nil, "get", RequestOptions{})
	require.Error(t, err)

	var classified *kerrors.ClassifiedError
	require.True(t, errors.As(err, &classified))
	assert.Equal(t, kerrors.Recoverable, classified.Category)
	assert.Equal(t, before+2, testutil.ToFloat64(transportRetriesTotal))
}

func TestHTTPTransport_CanceledContext(t *testing.T) {
	srv := graphtest.New()
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := newTestTransport(t, srv.URL)
	_, err := tr.MakeRequest(ctx, "/me", nil, "get", RequestOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, srv.Requests())
}

func TestHTTPTransport_DebugDump(t *testing.T) {
	srv := graphtest.New()
	defer srv.Close()
	srv.HandleJSON(http.MethodGet, "/me", map[string]string{"id": "4"})

	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	defer func() { log.Logger = prev }()

	t.Setenv("KOALA_DEBUG", "true")
	tr := newTestTransport(t, srv.URL)
	_, err := tr.MakeRequest(context.Background(), "/me", nil, "get", RequestOptions{})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"request_dump"`)
	assert.Contains(t, out, `"response_dump"`)
}

func TestHTTPTransport_URLSelection(t *testing.T) {
	tr, err := NewHTTPTransport(Config{})
	require.NoError(t, err)

	cases := []struct {
		name   string
		params map[string]string
		opts   RequestOptions
		want   string
	}{
		{"anonymous graph", nil, RequestOptions{}, "http://graph.facebook.com/me"},
		{"token forces https", map[string]string{"access_token": "t"}, RequestOptions{}, "https://graph.facebook.com/me"},
		{"ssl option", nil, RequestOptions{UseSSL: true}, "https://graph.facebook.com/me"},
		{"rest server", nil, RequestOptions{RESTAPI: true}, "http://api.facebook.com/me"},
		{"beta", nil, RequestOptions{Beta: true}, "http://beta.graph.facebook.com/me"},
		{"video", nil, RequestOptions{Video: true}, "http://graph-video.facebook.com/me"},
		{"beta rest video", nil, RequestOptions{RESTAPI: true, Beta: true, Video: true}, "http://beta.api-video.facebook.com/me"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tr.urlFor("/me", tc.params, tc.opts))
		})
	}
}

func TestHTTPTransport_BaseURLOverridesHost(t *testing.T) {
	tr := newTestTransport(t, "http://127.0.0.1:9999")
	got := tr.urlFor("/me", map[string]string{"access_token": "t"}, RequestOptions{RESTAPI: true, Beta: true})
	assert.Equal(t, "http://127.0.0.1:9999/me", got)
}

func TestClient_EndToEnd(t *testing.T) {
	srv := graphtest.New()
	defer srv.Close()
	srv.HandleJSON(http.MethodGet, "/{id}", map[string]any{"id": "4", "name": "Mark"})
	srv.Handle(http.MethodGet, "/broken/thing", graphtest.Reply{Status: http.StatusBadGateway, Body: "bad gateway"})

	c, err := New("secret", WithHTTPTransportConfig(Config{BaseURL: srv.URL}))
	require.NoError(t, err)

	got, err := c.Get(context.Background(), "4", map[string]string{"fields": "name"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "4", "name": "Mark"}, got)

	last, _ := srv.Last()
	assert.Equal(t, "/4", last.Path)
	assert.Equal(t, "secret", last.Query.Get("access_token"))

	_, err = c.Get(context.Background(), "broken/thing", nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "bad gateway", apiErr.Body)
}
