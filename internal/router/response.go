package router

import (
	"encoding/json"
	"net/http"

	"cardman/internal/models"
)

// corsHeaders ride on every response regardless of status.
var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Content-Type,Authorization,X-Api-Key",
	"Access-Control-Allow-Methods": "GET,POST,PUT,DELETE,OPTIONS",
}

// Response is the transport-independent reply. Body is JSON, or empty.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

func respond(status int, body any) Response {
	resp := Response{StatusCode: status, Headers: corsHeaders}
	if body == nil {
		return resp
	}
	data, err := json.Marshal(body)
	if err != nil {
		return Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    corsHeaders,
			Body:       []byte(`{"error":"failed to encode response"}`),
		}
	}
	resp.Body = data
	return resp
}

func errorResponse(status int, message string) Response {
	return respond(status, models.Document{"error": message})
}
