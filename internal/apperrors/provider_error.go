package apperrors

import (
	"errors"
	"fmt"
)

// Provider error kinds, used as metric label values by the import scheduler.
const (
	ProviderKindTransport = "transport"
	ProviderKindDecode    = "decode"
	ProviderKindHTTP      = "http"
)

// ProviderError classifies a failure while talking to the external rate provider.
// Kind is a short stable string (transport, decode, http_500, ...).
type ProviderError struct {
	Kind string
	Op   string
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s failed (%s): %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("provider %s failed (%s)", e.Op, e.Kind)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a classified provider failure.
func NewProviderError(kind, op string, err error) *ProviderError {
	return &ProviderError{Kind: kind, Op: op, Err: err}
}

// NewProviderHTTPError classifies a non-2xx provider response by its status code.
func NewProviderHTTPError(op string, statusCode int) *ProviderError {
	return &ProviderError{
		Kind: fmt.Sprintf("%s_%d", ProviderKindHTTP, statusCode),
		Op:   op,
		Err:  fmt.Errorf("unexpected status %d", statusCode),
	}
}

// KindOf maps any error to a short classification string for metrics and logs.
func KindOf(err error) string {
	var pe *ProviderError
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &pe):
		return pe.Kind
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNoDataAvailable):
		return "no_data"
	case errors.Is(err, ErrDateOutOfRange):
		return "date_out_of_range"
	default:
		return "internal"
	}
}
