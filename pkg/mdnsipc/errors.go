package mdnsipc

import "errors"

// Errors returned across the package boundary.
var (
	// ErrShortBuffer is returned by the codec when a buffer is too short to
	// contain the structure being decoded.
	ErrShortBuffer = errors.New("mdnsipc: short buffer")

	// ErrUnknownOperation is returned when a header's operation code does
	// not map to any known request or reply.
	ErrUnknownOperation = errors.New("mdnsipc: unknown operation")

	// ErrTruncated is returned when a sub-field's declared length would
	// extend past the body that was supposed to contain it.
	ErrTruncated = errors.New("mdnsipc: truncated body")

	// ErrChannelCreationFailed is returned by Open when the requested event
	// channel capacity is zero.
	ErrChannelCreationFailed = errors.New("mdnsipc: event channel capacity must be >= 1")

	// ErrIPCConnectionCreationFailed is returned by Open when the daemon
	// socket cannot be connected to.
	ErrIPCConnectionCreationFailed = errors.New("mdnsipc: failed to connect to mDNSResponder")

	// ErrIPCWriteFailed is returned by writer operations when the write half
	// of the socket errors or has already been closed.
	ErrIPCWriteFailed = errors.New("mdnsipc: failed to write request")
)
