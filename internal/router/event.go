package router

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Request is the normalized request envelope the router dispatches on.
type Request struct {
	Method string
	Path   string
	Body   []byte
}

// ParseEvent normalizes the two supported event envelope shapes into a
// Request. The newer shape nests the method under requestContext.http
// and carries the path in rawPath; the older one exposes httpMethod
// and path directly. Envelope handling is a pure adapter and stays out
// of route matching.
func ParseEvent(raw []byte) (Request, error) {
	var event struct {
		HTTPMethod     string `json:"httpMethod"`
		Path           string `json:"path"`
		RawPath        string `json:"rawPath"`
		Body           string `json:"body"`
		RequestContext *struct {
			HTTP *struct {
				Method string `json:"method"`
			} `json:"http"`
		} `json:"requestContext"`
	}
	if err := json.Unmarshal(raw, &event); err != nil {
		return Request{}, fmt.Errorf("parse event: %w", err)
	}

	if event.RequestContext != nil && event.RequestContext.HTTP != nil {
		return Request{
			Method: event.RequestContext.HTTP.Method,
			Path:   event.RawPath,
			Body:   []byte(event.Body),
		}, nil
	}

	req := Request{
		Method: event.HTTPMethod,
		Path:   event.Path,
		Body:   []byte(event.Body),
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if req.Path == "" {
		req.Path = "/"
	}
	return req, nil
}
