package server

import "errors"

// Error taxonomy for the server core. The API layer and the websocket
// protocol map these onto status codes and error events; no further
// detail crosses the boundary.
var (
	ErrValidation = errors.New("invalid message")
	ErrStorage    = errors.New("storage unavailable")
	ErrTimeout    = errors.New("operation timed out")
)
