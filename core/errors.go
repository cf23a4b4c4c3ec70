package core

import "errors"

var (
	// ErrUnsupportedContent is returned when message content cannot be
	// flattened into a mapping.
	ErrUnsupportedContent = errors.New("unsupported message content type")

	// ErrInvalidMessage is returned when decoding a malformed stored message.
	ErrInvalidMessage = errors.New("invalid message")
)
