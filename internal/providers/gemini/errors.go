package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"genstudio/internal/domain"
)

var expiredKeyMarkers = []string{
	"api key not valid",
	"api_key_invalid",
	"api key expired",
	"requested entity was not found",
}

// classifyError maps SDK and transport failures onto the domain taxonomy.
// Context errors pass through unchanged only when the caller's ctx is done;
// a per-call timeout inside the gateway is a provider failure.
func classifyError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: provider timed out: %w", domain.ErrRemoteProvider, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", domain.ErrRemoteProvider, err)
	}

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		apiErr = *apiErrPtr
	default:
		if credentialRejected(0, "", err.Error()) {
			return fmt.Errorf("%w: %w", domain.ErrAPIKeyExpired, err)
		}
		return fmt.Errorf("%w: %w", domain.ErrRemoteProvider, err)
	}

	if credentialRejected(apiErr.Code, apiErr.Status, apiErr.Message) {
		return fmt.Errorf("%w: %w", domain.ErrAPIKeyExpired, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrRemoteProvider, err)
}

func credentialRejected(code int, status, message string) bool {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	switch strings.ToUpper(status) {
	case "UNAUTHENTICATED", "PERMISSION_DENIED":
		return true
	}
	msg := strings.ToLower(message)
	for _, marker := range expiredKeyMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
