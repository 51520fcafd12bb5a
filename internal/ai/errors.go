package ai

import (
	"errors"
	"fmt"
	"net/http"

	appErr "github.com/xxxsen/civiclens/internal/pkg/errors"
)

// ErrUnavailable means no usable key is configured for the provider.
var ErrUnavailable = fmt.Errorf("ai not configured: %w", appErr.ErrUpstreamAuth)

// ErrQuotaExceeded is reported on provider rate/quota rejections.
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// classifyStatus maps a provider HTTP status to the shared upstream error kinds.
func classifyStatus(provider string, status int, err error) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%s: %w: %v", provider, appErr.ErrUpstreamAuth, err)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w: %v", provider, ErrQuotaExceeded, err)
	case status == http.StatusBadRequest:
		return fmt.Errorf("%s: %w: %v", provider, appErr.ErrInvalid, err)
	default:
		return fmt.Errorf("%s: %w: %v", provider, appErr.ErrUpstreamUnavailable, err)
	}
}

// IsQuotaOrAuth reports failures that retrying will not fix.
func IsQuotaOrAuth(err error) bool {
	return errors.Is(err, ErrQuotaExceeded) || errors.Is(err, appErr.ErrUpstreamAuth)
}
