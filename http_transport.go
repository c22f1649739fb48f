package koala

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	kerrors "github.com/gmccreight/koala/internal/errors"
)

// methodOverrideParam carries the real verb when a non-GET/POST call is
// tunnelled through POST.
const methodOverrideParam = "method"

// HTTPTransport is the default Transport. It picks the Graph or REST server
// from RequestOptions and sends the call over HTTP:
//
//   - GET puts params on the query string.
//   - POST sends params form-encoded.
//   - any other verb is sent as POST with a "method" form field naming it.
//
// Calls that carry an access_token, or set UseSSL, use https.
//
// Failures to get any response are retried with exponential backoff up to
// Config.MaxAttempts. Responses are never retried, whatever their status.
type HTTPTransport struct {
	cfg Config
	rc  *resty.Client
}

// NewHTTPTransport validates cfg and builds the transport.
func NewHTTPTransport(cfg Config) (*HTTPTransport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rc := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{})

	if debugLoggingRequested() {
		rc.SetTransport(&debugTransport{base: rc.GetClient().Transport})
	}

	return &HTTPTransport{cfg: cfg, rc: rc}, nil
}

// MakeRequest implements Transport.
func (t *HTTPTransport) MakeRequest(ctx context.Context, path string, params map[string]string, method string, opts RequestOptions) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	method = normalizeMethod(method)
	requestID := uuid.NewString()
	operation := method + " " + path

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = t.cfg.BaseBackoff
	exp.Multiplier = 2
	exp.MaxInterval = t.cfg.MaxInterval
	exp.MaxElapsedTime = 0 // bounded by MaxAttempts instead
	exp.Reset()
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(t.cfg.MaxAttempts-1)), ctx)

	start := time.Now()
	var out *Response
	err := backoff.RetryNotify(func() error {
		resp, err := t.do(ctx, path, params, method, opts, requestID)
		if err != nil {
			classified := kerrors.ClassifyNetworkError(ctx, operation, err)
			if kerrors.IsIrrecoverable(classified) {
				return backoff.Permanent(classified)
			}
			return classified
		}
		out = resp
		return nil
	}, policy, func(err error, wait time.Duration) {
		transportRetriesTotal.Inc()
		log.Warn().
			Err(err).
			Str("request_id", requestID).
			Dur("wait", wait).
			Msg("transport retry")
	})
	transportRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	transportRequestsTotal.WithLabelValues(method, statusLabel(out.Status)).Inc()
	return out, nil
}

// do performs a single HTTP attempt.
func (t *HTTPTransport) do(ctx context.Context, path string, params map[string]string, method string, opts RequestOptions, requestID string) (*Response, error) {
	target := t.urlFor(path, params, opts)

	req := t.rc.R().
		SetContext(ctx).
		SetHeader("X-Request-Id", requestID)

	var (
		resp *resty.Response
		err  error
	)
	switch method {
	case http.MethodGet:
		resp, err = req.SetQueryParams(params).Get(target)
	default:
		form := make(map[string]string, len(params)+1)
		for k, v := range params {
			form[k] = v
		}
		if method != http.MethodPost {
			form[methodOverrideParam] = strings.ToLower(method)
		}
		resp, err = req.SetFormData(form).Post(target)
	}
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("url", target).
		Int("status", resp.StatusCode()).
		Dur("elapsed", resp.Time()).
		Msg("transport response")

	return NewResponse(resp.StatusCode(), string(resp.Body()), resp.Header()), nil
}

// urlFor returns the absolute URL for path.
func (t *HTTPTransport) urlFor(path string, params map[string]string, opts RequestOptions) string {
	if t.cfg.BaseURL != "" {
		return t.cfg.BaseURL + path
	}
	scheme := "http"
	if opts.UseSSL || params[accessTokenParam] != "" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s%s", scheme, t.server(opts), path)
}

// server returns the host name selected by opts.
func (t *HTTPTransport) server(opts RequestOptions) string {
	host := t.cfg.GraphServer
	if opts.RESTAPI {
		host = t.cfg.RESTServer
	}
	if opts.Video {
		host = strings.Replace(host, ".facebook", "-video.facebook", 1)
	}
	if opts.Beta {
		host = "beta." + host
	}
	return host
}

// restyLogger routes resty's internal messages to zerolog.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...interface{}) { log.Error().Msgf(format, v...) }
func (restyLogger) Warnf(format string, v ...interface{})  { log.Warn().Msgf(format, v...) }
func (restyLogger) Debugf(format string, v ...interface{}) { log.Debug().Msgf(format, v...) }
