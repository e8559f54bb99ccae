package api

import (
	"errors"
	"fmt"
)

// ErrVersionMismatch indicates the server speaks an incompatible API major
// version. Wrapped by Client.CheckVersion with the concrete versions.
var ErrVersionMismatch = errors.New("api version mismatch")

// TransportError is the single failure kind surfaced by the client: network
// errors, timeouts, non-success statuses, and undecodable bodies all collapse
// into it. Context cancellation is not a TransportError; cancelled calls
// return the context's error unchanged so callers can discard them silently.
type TransportError struct {
	// Op names the failed operation, e.g. "fetch listing collection".
	Op string
	// URL is the request URL.
	URL string
	// StatusCode is the HTTP status, or 0 when no response arrived.
	StatusCode int
	// Kind is the server's error envelope kind when one was decoded.
	Kind string
	// Source is the upstream named by the server's error envelope.
	Source string
	// Detail is the server's human-readable description.
	Detail string
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	switch {
	case e.Source != "":
		return fmt.Sprintf("%s: %s from %s (status %d): %s",
			e.Op, e.Kind, e.Source, e.StatusCode, e.Detail)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: unexpected status %d from %s", e.Op, e.StatusCode, e.URL)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": transport failure"
	}
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// ExternalAPIError reports a failed call to an upstream data source (market
// quotes, yield observations, the listing exchange, the language model).
// Server handlers map it to a 503 response with an external_api_error
// envelope.
type ExternalAPIError struct {
	// Source names the upstream, e.g. "JPX".
	Source string
	// Detail is a human-readable description of the failure.
	Detail string
}

// Error implements the error interface.
func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("external API error from %s: %s", e.Source, e.Detail)
}

// DataParsingError reports upstream data that could not be parsed. Server
// handlers map it to a 502 response with a data_parsing_error envelope.
type DataParsingError struct {
	// Source names the upstream whose payload was malformed.
	Source string
	// Detail is a human-readable description of the failure.
	Detail string
}

// Error implements the error interface.
func (e *DataParsingError) Error() string {
	return fmt.Sprintf("data parsing error from %s: %s", e.Source, e.Detail)
}
