// Package http serves the JSON API and the OAuth redirect pair.
//
// This file implements utilities for parsing and validating request data:
// query parameters, path ids and JSON bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// dateLayout is the calendar-day layout accepted in query parameters.
const dateLayout = "2006-01-02"

// errBadBody marks a request body that is not usable JSON.
var errBadBody = errors.New("malformed request body")

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, using the
// current date for missing values. Non-numeric values are rejected.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{Year: now.Year(), Month: int(now.Month())}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return params, core.ErrInvalidYear
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return params, core.ErrInvalidMonth
		}
		params.Month = m
	}
	return params, nil
}

// ParseDateRange reads the optional from/to calendar days.
func ParseDateRange(query url.Values) (core.DateRange, error) {
	var r core.DateRange
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &r.From}, {"to", &r.To}} {
		v := strings.TrimSpace(query.Get(p.name))
		if v == "" {
			continue
		}
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return core.DateRange{}, &core.ValidationError{Field: p.name, Reason: "must be a date like 2024-01-31"}
		}
		*p.dst = t
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return core.DateRange{}, &core.ValidationError{Field: "to", Reason: "must not be before from"}
	}
	return r, nil
}

// ParseLimit reads a non-negative limit; missing means zero.
func ParseLimit(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("limit"))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &core.ValidationError{Field: "limit", Reason: "must be a non-negative integer"}
	}
	return n, nil
}

// ParseKindFilter reads an optional kind; empty means any.
func ParseKindFilter(query url.Values) (core.Kind, error) {
	v := strings.TrimSpace(query.Get("kind"))
	if v == "" {
		return "", nil
	}
	return core.ParseKind(v)
}

// ParsePathID reads the {id} path segment.
func ParsePathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &core.ValidationError{Field: "id", Reason: "must be a positive integer"}
	}
	return id, nil
}

// DecodeJSON reads a size-limited JSON body into dst. Unknown fields are
// rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return errUnsupportedMediaType
		}
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		// value errors from core types carry their own meaning
		if errors.Is(err, core.ErrValidation) {
			return err
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", errBadBody)
	}
	return nil
}

var (
	errUnsupportedMediaType = errors.New("content type must be application/json")
	errBodyTooLarge         = errors.New("request body too large")
)

// writeDecodeError answers a DecodeJSON failure.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errUnsupportedMediaType):
		ErrorResponse(http.StatusUnsupportedMediaType, err.Error()).Write(w)
	case errors.Is(err, errBodyTooLarge):
		ErrorResponse(http.StatusRequestEntityTooLarge, err.Error()).Write(w)
	case errors.Is(err, errBadBody):
		BadRequestError("malformed JSON body").Write(w)
	default:
		writeError(w, r, "decode", err)
	}
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *JSONResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}
