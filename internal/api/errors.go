package api

import (
	"errors"
	"fmt"
)

// Kind classifies a failed service call so callers can choose how to
// present it without parsing message strings.
type Kind int

const (
	KindUnknown        Kind = iota
	KindValidation          // 422: the service rejected the submitted record
	KindServer              // 5xx: the service failed internally
	KindModelNotLoaded      // 503: models are still loading
	KindTimeout             // the request deadline expired
	KindUnreachable         // nothing answered at the configured base URL
)

// Error is a classified failure from the prediction service.
type Error struct {
	Kind   Kind
	Op     string // "prediction", "explanation", ...
	Status int    // HTTP status, 0 for transport failures
	Detail string
	Err    error // wrapped transport error, when any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from any error chain containing an
// *Error; everything else is KindUnknown.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// UserMessage returns the short operator-facing description of err,
// without the operation prefix. Non-API errors fall back to err.Error().
func UserMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return err.Error()
}
