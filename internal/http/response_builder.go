// Package http serves the JSON API and the OAuth redirect pair.
//
// This file holds the fluent builder every handler uses to write a response,
// so status, headers and body encoding stay consistent.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/identity"
	applog "fintrack/internal/log"
	"fintrack/internal/records"
	"fintrack/internal/session"
	"fintrack/internal/storage"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
	raw        []byte
	rawType    string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the response body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Bytes sends content as-is with the given content type instead of JSON.
func (b *JSONResponseBuilder) Bytes(contentType string, content []byte) *JSONResponseBuilder {
	b.rawType = contentType
	b.raw = content
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if b.raw != nil {
		w.Header().Set("Content-Type", b.rawType)
		w.WriteHeader(b.statusCode)
		_, _ = w.Write(b.raw)
		return
	}

	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	body, err := json.Marshal(b.payload)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(body, '\n'))
}

// errorBody is the shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// ErrorResponse creates a JSON error response with the given message.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Data(errorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnauthorizedError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func ServiceUnavailableError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusServiceUnavailable, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// MethodNotAllowedError creates a 405 response listing the allowed methods.
func MethodNotAllowedError(allowedMethods string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").
		Header("Allow", allowedMethods)
}

// classifyError maps a domain error to a response and the error type it is
// logged under. Storage and provider details never reach the client.
func classifyError(err error) (*JSONResponseBuilder, string) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return NewJSONResponse().
			Status(http.StatusUnprocessableEntity).
			Data(errorBody{Error: verr.Error(), Field: verr.Field}), applog.ErrorTypeValidation
	case errors.Is(err, core.ErrValidation):
		return UnprocessableEntityError(err.Error()), applog.ErrorTypeValidation
	case errors.Is(err, records.ErrNotFound):
		return NotFoundError("not found"), applog.ErrorTypeNotFound
	case errors.Is(err, records.ErrConflict):
		return ErrorResponse(http.StatusConflict, "already exists"), applog.ErrorTypeConflict
	case errors.Is(err, storage.ErrStorageUnavailable):
		return ServiceUnavailableError("storage temporarily unavailable"), applog.ErrorTypeUnavailable
	case errors.Is(err, identity.ErrNotConfigured):
		return ServiceUnavailableError("sign-in is not configured"), applog.ErrorTypeUnavailable
	case errors.Is(err, identity.ErrIdentityProvider), errors.Is(err, session.ErrNoSession):
		return UnauthorizedError("authentication failed"), applog.ErrorTypeAuth
	default:
		return InternalServerError("internal error"), applog.ErrorTypeInternal
	}
}

// writeError logs err with the request logger and writes its mapped response.
func writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	resp, errType := classifyError(err)
	logger := applog.FromContext(r.Context())
	if resp.statusCode >= http.StatusInternalServerError {
		applog.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, errType, operation,
			applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, "", ""))
	} else {
		logger.WarnContext(r.Context(), "Request rejected",
			applog.FieldOperation, operation,
			applog.FieldErrorType, errType,
			applog.FieldError, err.Error())
	}
	resp.Write(w)
}

// writeJSON sends v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Data(v).Write(w)
}
