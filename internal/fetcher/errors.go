package fetcher

import (
	"errors"
	"fmt"
)

// TransientFetchError marks a provider failure worth retrying (network faults, 5xx, 429).
type TransientFetchError struct {
	StatusCode int
	Err        error
}

func (e *TransientFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient provider failure (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient provider failure: %v", e.Err)
}

func (e *TransientFetchError) Unwrap() error { return e.Err }

// PermanentFetchError marks a response that will not improve on retry: malformed
// payloads, unknown symbols, or an instrument with no history.
type PermanentFetchError struct {
	Reason string
	Err    error
}

func (e *PermanentFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("permanent provider failure: %s: %v", e.Reason, e.Err)
	}
	return "permanent provider failure: " + e.Reason
}

func (e *PermanentFetchError) Unwrap() error { return e.Err }

// FetchExhaustedError is returned once every attempt failed transiently.
type FetchExhaustedError struct {
	Instrument string
	Period     string
	Attempts   int
	Err        error
}

func (e *FetchExhaustedError) Error() string {
	return fmt.Sprintf("fetch %s/%s failed after %d attempts: %v", e.Instrument, e.Period, e.Attempts, e.Err)
}

func (e *FetchExhaustedError) Unwrap() error { return e.Err }

// Transient wraps err as a TransientFetchError.
func Transient(status int, err error) error {
	return &TransientFetchError{StatusCode: status, Err: err}
}

// Permanent wraps err as a PermanentFetchError.
func Permanent(reason string, err error) error {
	return &PermanentFetchError{Reason: reason, Err: err}
}

// IsTransient reports whether err carries a TransientFetchError.
func IsTransient(err error) bool {
	var te *TransientFetchError
	return errors.As(err, &te)
}

// IsPermanent reports whether err carries a PermanentFetchError.
func IsPermanent(err error) bool {
	var pe *PermanentFetchError
	return errors.As(err, &pe)
}
