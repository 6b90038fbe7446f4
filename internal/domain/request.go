package domain

import (
	"encoding/json"
	"strings"
)

// Header is a case-insensitive header mapping. Keys are stored lowercased.
type Header map[string]string

// NewHeader builds a Header from an arbitrary-case map
func NewHeader(values map[string]string) Header {
	h := make(Header, len(values))
	for k, v := range values {
		h.Set(k, v)
	}
	return h
}

// Get returns the value for key, ignoring case
func (h Header) Get(key string) string {
	if h == nil {
		return ""
	}
	return h[strings.ToLower(key)]
}

// Set stores value under the lowercased key
func (h Header) Set(key, value string) {
	h[strings.ToLower(key)] = value
}

// Request is the transport-agnostic input to the dispatcher.
// It is owned by the caller and never modified by the core.
type Request struct {
	Method string
	Path   string
	// Headers lookups are case-insensitive
	Headers Header
	// Body is the raw payload, nil when absent
	Body  []byte
	Query map[string]string
}

// HasBody reports whether a non-empty payload was supplied
func (r *Request) HasBody() bool {
	return r != nil && len(r.Body) > 0 && string(r.Body) != "null"
}

// Response is the output of the dispatcher. The dispatcher always returns one
// with Status, Body and Headers set.
type Response struct {
	Status  int               `json:"status"`
	Body    any               `json:"body"`
	Headers map[string]string `json:"headers"`
}

// NewJSONResponse builds a response with a JSON content type
func NewJSONResponse(status int, body any) *Response {
	return &Response{
		Status:  status,
		Body:    body,
		Headers: map[string]string{"Content-Type": "application/json"},
	}
}

// NewEmptyResponse builds a bodiless response such as 204
func NewEmptyResponse(status int) *Response {
	return &Response{
		Status:  status,
		Body:    nil,
		Headers: map[string]string{},
	}
}

// MarshalBody encodes the body as JSON. A nil body encodes to nil.
func (r *Response) MarshalBody() ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	return json.Marshal(r.Body)
}
