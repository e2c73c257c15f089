package discovery

import "errors"

// Domain errors for the discovery package.
var (
	// ErrNotStarted is returned when stopping discovery that was never started.
	ErrNotStarted = errors.New("discovery: not started")

	// ErrClosed is returned by operations on a closed client.
	ErrClosed = errors.New("discovery: client closed")

	// ErrMalformedMessage is returned for bridge messages that cannot be decoded.
	ErrMalformedMessage = errors.New("discovery: malformed message")
)
