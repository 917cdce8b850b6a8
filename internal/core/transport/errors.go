package transport

import "errors"

var (
	// ErrNoTransport 没有启用任何传输
	ErrNoTransport = errors.New("transport: no transport enabled")
)
