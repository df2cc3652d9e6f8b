// Copyright 2025 James Ross
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/flyingrobots/videoapi/internal/apierr"
)

// ErrorDetail is the body of every error envelope's "error" field.
type ErrorDetail struct {
	Code              string         `json:"code"`
	Message           string         `json:"message"`
	Details           map[string]any `json:"details,omitempty"`
	RequestID         string         `json:"request_id"`
	Timestamp         time.Time      `json:"timestamp"`
	DocumentationURL  string         `json:"documentation_url"`
}

// ErrorResponse is the standard error envelope returned by every failed
// request.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// writeError renders err as a standard error envelope, mapping unrecognized
// error types to INTERNAL_ERROR rather than leaking internals.
func writeError(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*apierr.Error)
	if !ok {
		apiErr = apierr.Internal("An unexpected error occurred")
	}
	writeErrorDetail(w, apiErr, "")
}

func writeErrorDetail(w http.ResponseWriter, apiErr *apierr.Error, requestID string) {
	if requestID == "" {
		requestID = uuid.New().String()
	}
	resp := ErrorResponse{Error: ErrorDetail{
		Code:             apiErr.Code,
		Message:          apiErr.Message,
		Details:          apiErr.Details,
		RequestID:        requestID,
		Timestamp:        time.Now().UTC(),
		DocumentationURL: "https://docs.lumalabs.ai/errors/" + apiErr.Code,
	}}

	if apiErr.Code == "RATE_LIMIT_EXCEEDED" {
		if retryAfter, ok := apiErr.Details["retry_after"].(int); ok {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status)
	_ = json.NewEncoder(w).Encode(resp)
}
