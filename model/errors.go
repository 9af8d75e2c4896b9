package model

import (
	"errors"
	"fmt"
)

// AuthenticationError means the call could not be attempted on behalf of the
// user: no session, no linked provider account, or the provider rejected the
// refresh. It is fatal to the whole call.
type AuthenticationError struct {
	UserID string
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	msg := fmt.Sprintf("authentication failed for user %q: %s", e.UserID, e.Reason)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// UpstreamError is a non-2xx response, transport failure or timeout from the
// provider. Body carries the (truncated) response text when there was one.
type UpstreamError struct {
	Resource   string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("upstream request for %s failed: %v", e.Resource, e.Err)
	case e.Body != "":
		return fmt.Sprintf("upstream returned %d for %s: %s", e.StatusCode, e.Resource, e.Body)
	default:
		return fmt.Sprintf("upstream returned %d for %s", e.StatusCode, e.Resource)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NotFoundError means a referenced local record does not exist.
type NotFoundError struct {
	Kind string
	Key  string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// ParseError is raised for a single entity whose normalized fields are
// missing or malformed. Callers log it and move on to the next sibling.
type ParseError struct {
	Entity string
	Key    string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("cannot parse %s: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("cannot parse %s %s: %s", e.Entity, e.Key, e.Reason)
}

func IsAuthenticationError(err error) bool {
	var e *AuthenticationError
	return errors.As(err, &e)
}

func IsUpstreamError(err error) bool {
	var e *UpstreamError
	return errors.As(err, &e)
}

func IsNotFoundError(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsParseError(err error) bool {
	var e *ParseError
	return errors.As(err, &e)
}
