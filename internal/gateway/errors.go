package gateway

import "errors"

var (
	// ErrUnusableKey is returned when a client is built with an empty or
	// placeholder credential.
	ErrUnusableKey = errors.New("gateway: api key is empty or a placeholder")

	// ErrNoRoute means the provider answered but found no route for the mode.
	ErrNoRoute = errors.New("gateway: no route found")

	// ErrUpstreamStatus wraps non-2xx upstream responses.
	ErrUpstreamStatus = errors.New("gateway: unexpected upstream status")

	// ErrMalformedBody means the upstream body could not be decoded.
	ErrMalformedBody = errors.New("gateway: malformed upstream body")
)
