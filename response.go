package koala

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnknownComponent is returned when a Component does not name a Response field.
var ErrUnknownComponent = errors.New("unknown http component")

// Response is the fully-buffered result a Transport hands back to the Client.
type Response struct {
	Status  int
	Body    string
	Headers http.Header
}

// NewResponse builds a Response; a nil header map is replaced by an empty one.
func NewResponse(status int, body string, headers http.Header) *Response {
	if headers == nil {
		headers = make(http.Header)
	}
	return &Response{Status: status, Body: body, Headers: headers}
}

// Component names a Response field that callers can ask for instead of the
// decoded body.
type Component int

const (
	// ComponentNone means "decode the body as JSON".
	ComponentNone Component = iota
	ComponentStatus
	ComponentBody
	ComponentHeaders
)

var componentNames = map[Component]string{
	ComponentNone:    "none",
	ComponentStatus:  "status",
	ComponentBody:    "body",
	ComponentHeaders: "headers",
}

// String returns the lower-case field name.
func (c Component) String() string {
	if name, ok := componentNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Component(%d)", int(c))
}

// ParseComponent maps a field name ("status", "body", "headers") to a
// Component. Matching is case-insensitive.
func ParseComponent(name string) (Component, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "status":
		return ComponentStatus, nil
	case "body":
		return ComponentBody, nil
	case "headers":
		return ComponentHeaders, nil
	default:
		return ComponentNone, fmt.Errorf("%w: %q", ErrUnknownComponent, name)
	}
}

// Component returns the field named by c.
func (r *Response) Component(c Component) (any, error) {
	switch c {
	case ComponentStatus:
		return r.Status, nil
	case ComponentBody:
		return r.Body, nil
	case ComponentHeaders:
		return r.Headers, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownComponent, c)
	}
}
