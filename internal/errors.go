package internal

import (
	"errors"
	"fmt"
	"net/http"
)

// Guard rejections returned by the session controller. They never change state.
var (
	ErrBlankInput = errors.New("input is blank")
	ErrBusy       = errors.New("a request is already in flight")
	ErrNoChat     = errors.New("no chat has been started")
)

// ErrNotLoggedIn is returned when a command needs a stored access token
var ErrNotLoggedIn = errors.New("not logged in - run 'vidchat login' first")

// APIError is a non-2xx response from the backend
type APIError struct {
	Status int
	Detail string
	Body   []byte
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, http.StatusText(e.Status))
}

// IsUnauthorized reports whether err is a 401 from the backend
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// ProvisioningError is a failure to obtain a transcript or chat identifier
type ProvisioningError struct {
	Op      string
	Message string
	Err     error
}

func (e *ProvisioningError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// ExchangeError is a failure to obtain an assistant reply
type ExchangeError struct {
	Message string
	Err     error
}

func (e *ExchangeError) Error() string {
	if e.Message != "" {
		return "exchanging message: " + e.Message
	}
	return fmt.Sprintf("exchanging message: %v", e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// detailOf extracts the backend's human readable detail, if any
func detailOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// userMessage returns the message to surface for err, or fallback when the
// error carries none
func userMessage(err error, fallback string) string {
	var pe *ProvisioningError
	if errors.As(err, &pe) {
		if pe.Message != "" {
			return pe.Message
		}
		return fallback
	}

	var ee *ExchangeError
	if errors.As(err, &ee) {
		if ee.Message != "" {
			return ee.Message
		}
		return fallback
	}

	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}
