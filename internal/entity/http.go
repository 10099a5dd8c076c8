package entity

import (
	"net/http"
	"time"
)

// HTTPRequest is an outbound request issued by a script.
type HTTPRequest struct {
	URL     string
	Method  string
	Headers map[string]string
	Params  map[string]string
	Body    []byte
	// Timeout overrides the requester default when positive.
	Timeout time.Duration
}

// HTTPResponse is the buffered result of an HTTPRequest.
// Non-2xx statuses are returned as responses, not as errors.
type HTTPResponse struct {
	StatusCode int
	Headers    http.Header
	Data       []byte
}

// OK reports whether the status code is 2xx.
func (r *HTTPResponse) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}
