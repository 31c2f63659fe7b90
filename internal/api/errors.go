package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// GenericErrorMessage is shown when the server gave no usable message.
const GenericErrorMessage = "Unknown error"

// Kind classifies a failed call so callers can branch without parsing strings.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNetwork is a transport failure: nothing usable came back.
	KindNetwork
	// KindServer is a non-2xx response.
	KindServer
	// KindBusiness is a 2xx response that reports failure (success=false) or
	// lacks a required field.
	KindBusiness
	// KindUnauthenticated means there is no usable credential, or the server
	// answered 401.
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindBusiness:
		return "business"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Error is the tagged error returned by the gateway. Message is ready for
// display.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NetworkError(err error) error {
	return &Error{
		Kind:    KindNetwork,
		Message: fmt.Sprintf("An error occurred: %v", err),
		Err:     err,
	}
}

// ServerError builds a KindServer error (KindUnauthenticated for 401) from the
// raw response body.
func ServerError(status int, body []byte) error {
	kind := KindServer
	if status == 401 {
		kind = KindUnauthenticated
	}
	return &Error{
		Kind:       kind,
		StatusCode: status,
		Message:    serverMessage(body),
	}
}

// BusinessError uses message, or fallback when the server sent none.
func BusinessError(message, fallback string) error {
	if message == "" {
		message = fallback
	}
	if message == "" {
		message = GenericErrorMessage
	}
	return &Error{Kind: KindBusiness, Message: message}
}

func Unauthenticated(message string, cause error) error {
	if message == "" {
		message = "User not authenticated"
	}
	return &Error{Kind: KindUnauthenticated, Message: message, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// Message renders err for the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// serverMessage prefers a JSON message/error field, then the raw body, then
// the generic fallback.
func serverMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return GenericErrorMessage
	}

	if trimmed[0] == '{' {
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(trimmed, &payload); err == nil {
			if payload.Message != "" {
				return payload.Message
			}
			if payload.Error != "" {
				return payload.Error
			}
		}
	}
	return string(trimmed)
}
