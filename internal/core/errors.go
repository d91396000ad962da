package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeProtocol         = "protocol_error"
	ErrCodeNotAuthenticated = "not_authenticated"
	ErrCodeNotInRoom        = "not_in_room"
	ErrCodeUnknownOccupant  = "unknown_occupant"
	ErrCodeRateLimited      = "rate_limited"
)

var (
	ErrIdentityNotHeld  = errors.New("identity not held")
	ErrRoomFull         = errors.New("room full")
	ErrNotInRoom        = errors.New("not in room")
	ErrUnknownOccupant  = errors.New("unknown occupant")
	ErrSessionClosed    = errors.New("session closed")
	ErrClientClosed     = errors.New("client closed")
	ErrOutboundOverflow = errors.New("outbound buffer full")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
