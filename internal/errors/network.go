package errors

import (
	"context"
	stderrors "errors"
	"net/url"
)

// ClassifyNetworkError wraps a failure to obtain an HTTP response. Caller
// cancellation and deadline expiry of the caller's context are final; a
// request that could not even be built is final; anything else is assumed
// to be transient.
func ClassifyNetworkError(ctx context.Context, operation string, err error) *ClassifiedError {
	category := Recoverable
	switch {
	case ctx.Err() != nil:
		category = Irrecoverable
	case stderrors.Is(err, context.Canceled):
		category = Irrecoverable
	case isMalformedURL(err):
		category = Irrecoverable
	}
	return &ClassifiedError{
		Category:   category,
		Operation:  operation,
		Underlying: err,
	}
}

// isMalformedURL reports a url.Error raised while parsing rather than
// while dialing.
func isMalformedURL(err error) bool {
	var uerr *url.Error
	if !stderrors.As(err, &uerr) {
		return false
	}
	return uerr.Op == "parse"
}
