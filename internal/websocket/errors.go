package websocket

import "errors"

var (
	ErrClientQueueFull  = errors.New("client message queue is full")
	ErrClientClosed     = errors.New("client is closed")
	ErrInvalidMessage   = errors.New("invalid message format")
	ErrClientNotFound   = errors.New("client not found")
	ErrClientRegistered = errors.New("client is already registered")
	ErrHubStopped       = errors.New("hub is stopped")
	ErrHandshakeTimeout = errors.New("handshake timeout")
	// ErrMembershipLookup хранилище членства недоступно после всех повторов.
	ErrMembershipLookup = errors.New("membership lookup failed")
)
