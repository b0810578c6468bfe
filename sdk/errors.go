package socialgate

import (
	"errors"
	"fmt"
)

// Error codes returned by the gateway.
const (
	CodeValidation          = "validation_error"
	CodeUnsupportedPlatform = "unsupported_platform"
	CodeConfiguration       = "configuration_error"
	CodeTokenExchange       = "token_exchange_failed"
	CodeTokenRefresh        = "token_refresh_failed"
	CodePostDispatch        = "post_dispatch_failed"
	CodeNotImplemented      = "not_implemented"
)

// APIError is returned when the gateway responds with a non-success status.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("socialgate: HTTP %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("socialgate: HTTP %d: %s", e.StatusCode, e.Message)
}

// IsCode reports whether err is an APIError carrying code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
