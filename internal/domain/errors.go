package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an Error. The value doubles as the machine-readable code
// returned to HTTP callers.
type Kind string

const (
	KindValidation          Kind = "validation_error"
	KindUnsupportedPlatform Kind = "unsupported_platform"
	KindConfiguration       Kind = "configuration_error"
	KindTokenExchange       Kind = "token_exchange_failed"
	KindTokenRefresh        Kind = "token_refresh_failed"
	KindPostDispatch        Kind = "post_dispatch_failed"
	KindNotImplemented      Kind = "not_implemented"
	KindInternal            Kind = "internal_error"
)

// Sentinels for errors.Is matching on kind alone.
var (
	ErrValidation          = &Error{Kind: KindValidation}
	ErrUnsupportedPlatform = &Error{Kind: KindUnsupportedPlatform}
	ErrConfiguration       = &Error{Kind: KindConfiguration}
	ErrTokenExchange       = &Error{Kind: KindTokenExchange}
	ErrTokenRefresh        = &Error{Kind: KindTokenRefresh}
	ErrPostDispatch        = &Error{Kind: KindPostDispatch}
	ErrNotImplemented      = &Error{Kind: KindNotImplemented}
)

// Error is the error type returned by every operation in the gateway.
// Body holds the raw provider response when one was received.
type Error struct {
	Kind     Kind
	Platform string
	Message  string
	Status   int
	Body     string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	switch {
	case e.Body != "":
		return fmt.Sprintf("%s: %s", msg, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match against any *Error with the same Kind that carries no
// message, which is how the package sentinels are shaped.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// KindOf returns the Kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func UnsupportedPlatform(name string) *Error {
	return &Error{Kind: KindUnsupportedPlatform, Platform: name, Message: "Unsupported platform: " + name}
}

func NotConfigured(platform string) *Error {
	return &Error{
		Kind:     KindConfiguration,
		Platform: platform,
		Message:  fmt.Sprintf("%s is not configured", platform),
	}
}

func ExchangeFailed(platform string, status int, body string, err error) *Error {
	return &Error{Kind: KindTokenExchange, Platform: platform, Message: "Token exchange failed", Status: status, Body: body, Err: err}
}

func RefreshFailed(platform string, status int, body string, err error) *Error {
	return &Error{Kind: KindTokenRefresh, Platform: platform, Message: "Token refresh failed", Status: status, Body: body, Err: err}
}

func DispatchFailed(platform string, status int, body string, err error) *Error {
	return &Error{
		Kind:     KindPostDispatch,
		Platform: platform,
		Message:  fmt.Sprintf("%s post failed", platform),
		Status:   status,
		Body:     body,
		Err:      err,
	}
}

func NotImplemented(platform, msg string) *Error {
	return &Error{Kind: KindNotImplemented, Platform: platform, Message: msg}
}
