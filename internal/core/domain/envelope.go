package domain

import (
	"fmt"
	"net/http"
)

const (
	MessageSuccessful  = "Successful"
	MessageFetchFailed = "Failed to fetch data"
)

// Envelope is the uniform, non-throwing result of every API call. Exactly one
// of the two shapes is meaningful: Success with Data, or a failure with
// Message and optional Errors.
type Envelope[T any] struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    T        `json:"data"`
	Errors  []string `json:"errors"`
	Status  int      `json:"-"`
}

func Ok[T any](status int, data T) Envelope[T] {
	return Envelope[T]{
		Success: true,
		Message: MessageSuccessful,
		Data:    data,
		Status:  status,
	}
}

func Fail[T any](status int, message string, errs []string) Envelope[T] {
	if message == "" {
		message = http.StatusText(status)
	}
	return Envelope[T]{
		Message: message,
		Errors:  errs,
		Status:  status,
	}
}

// Unreachable is the envelope for calls that never got a response.
func Unreachable[T any]() Envelope[T] {
	return Envelope[T]{Message: MessageFetchFailed}
}

// Err converts a failed envelope into an error for Go control flow.
func (e Envelope[T]) Err() error {
	if e.Success {
		return nil
	}
	return &APIError{Status: e.Status, Message: e.Message, Errors: e.Errors}
}

// Map carries a failure across payload types unchanged.
func MapEnvelope[T, U any](e Envelope[T], fn func(T) U) Envelope[U] {
	if !e.Success {
		return Envelope[U]{Message: e.Message, Errors: e.Errors, Status: e.Status}
	}
	return Envelope[U]{Success: true, Message: e.Message, Data: fn(e.Data), Status: e.Status}
}

type APIError struct {
	Status  int
	Message string
	Errors  []string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Status == 0
	case ErrBadRequest:
		return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrServer:
		return e.Status >= http.StatusInternalServerError
	}
	return false
}
