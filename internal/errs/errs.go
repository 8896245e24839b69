// Package errs defines the error taxonomy surfaced by the data-access core.
// All four kinds are recoverable values: the front end renders them as
// transient banners, never as crashes.
package errs

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed caller input (address, hash, hex value).
// It is always produced before any network I/O happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NetworkError reports a transport failure or timeout talking to a backend.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error in %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// BlockchainError reports a well-formed request the backend rejected
// (rate limit, unknown entity, execution revert).
type BlockchainError struct {
	Op      string
	Message string
}

func (e *BlockchainError) Error() string {
	return fmt.Sprintf("backend rejected %s: %s", e.Op, e.Message)
}

// ParseError reports a response the backend returned but this core could not
// make sense of (missing result envelope, non-numeric numerics).
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Network wraps err as a NetworkError for the named operation.
// A nil err returns nil.
func Network(op string, err error) error {
	if err == nil {
		return nil
	}
	return &NetworkError{Op: op, Err: err}
}

// Parse wraps err as a ParseError for the named operation.
func Parse(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Op: op, Err: err}
}

// IsNetwork reports whether err is (or wraps) a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
