package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal")

	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamAuth        = errors.New("upstream auth failure")
	ErrMalformedResponse   = errors.New("malformed upstream response")
)

// ErrUpstreamTimeout is a distinct kind but still counts as unavailable.
var ErrUpstreamTimeout error = &kindError{msg: "upstream timeout", parent: ErrUpstreamUnavailable}

type kindError struct {
	msg    string
	parent error
}

func (e *kindError) Error() string {
	return e.msg
}

func (e *kindError) Is(target error) bool {
	return target == e.parent
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsUpstreamUnavailable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}

func IsUpstreamAuth(err error) bool {
	return errors.Is(err, ErrUpstreamAuth)
}

func IsTimeout(err error) bool {
	return errors.Is(err, ErrUpstreamTimeout)
}
