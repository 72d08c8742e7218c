package shared

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// API and service errors
	ErrUpstream           = fmt.Errorf("unhandled upstream error")
	ErrRetriesExhausted   = fmt.Errorf("exceeded max retries")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrInvalidPlaylistID  = fmt.Errorf("invalid playlist id")

	// Input validation errors
	ErrMalformedTimestamp = fmt.Errorf("malformed timestamp")
	ErrMissingArgument    = fmt.Errorf("missing required argument")
	ErrInvalidArgument    = fmt.Errorf("invalid argument")
	ErrInvalidFlag        = fmt.Errorf("invalid flag value")
)

// UnhandledUpstreamError is returned for any failed call to the streaming API that is not
// otherwise classified: a non-2xx status, a transport failure or an undecodable body.
//
// StatusCode is 0 when no response was received.
type UnhandledUpstreamError struct {
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *UnhandledUpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: status %d %s: %v", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Err)
	}
	return fmt.Sprintf("%s %s: status %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap exposes both [ErrUpstream] and the underlying cause to [errors.Is].
func (e *UnhandledUpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstream}
	}
	return []error{ErrUpstream, e.Err}
}

// RetriesExhaustedError reports an operation abandoned after its retry policy ran out of attempts.
type RetriesExhaustedError struct {
	Op       string
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("%v for %s after %d attempts: %v", ErrRetriesExhausted, e.Op, e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() []error {
	return []error{ErrRetriesExhausted, e.Last}
}

// MalformedTimestampError reports a saved-track timestamp that is not in YYYY-MM-DDTHH:MM:SSZ layout.
type MalformedTimestampError struct {
	Value string
	Err   error
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("%v %q: %v", ErrMalformedTimestamp, e.Value, e.Err)
}

func (e *MalformedTimestampError) Unwrap() error {
	return ErrMalformedTimestamp
}

// StatusCode extracts the HTTP status of an [UnhandledUpstreamError] in err's chain, or 0.
func StatusCode(err error) int {
	var ue *UnhandledUpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode
	}
	return 0
}
