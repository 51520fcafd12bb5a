package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTimeoutMatchesUnavailable(t *testing.T) {
	err := fmt.Errorf("congress: %w", ErrUpstreamTimeout)
	require.True(t, IsTimeout(err))
	require.True(t, IsUpstreamUnavailable(err))
	require.False(t, IsUpstreamAuth(err))
}

func TestUnavailableIsNotTimeout(t *testing.T) {
	err := fmt.Errorf("fec: %w", ErrUpstreamUnavailable)
	require.False(t, IsTimeout(err))
	require.False(t, errors.Is(err, ErrMalformedResponse))
}
