package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrCredentialRequired = errors.New("credential selection required")
	ErrRemoteProvider     = errors.New("remote provider failure")
	ErrAPIKeyExpired      = errors.New("api key expired or invalid")
	ErrEmptyResult        = errors.New("provider returned no usable result")
	ErrDownloadFailed     = errors.New("asset download failed")
	ErrHistoryUnavailable = errors.New("history unavailable")
	ErrStore              = errors.New("history store failure")
	ErrGenerationInFlight = errors.New("generation already in flight")
)

// ValidationError reports a precondition failure detected before any network
// activity. It is user-correctable.
type ValidationError struct {
	Mode    Mode
	Message string
}

func (e *ValidationError) Error() string {
	if e.Mode == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation (%s): %s", e.Mode, e.Message)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
