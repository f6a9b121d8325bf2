package chat

import "errors"

var (
	// ErrMessageNotFound is returned when a message id is unknown.
	ErrMessageNotFound = errors.New("message not found")
	// ErrForbidden is returned when the requester does not own the message.
	// Anonymous messages have no owner and can never be mutated.
	ErrForbidden = errors.New("not the message owner")
	// ErrEmptyMessage is returned for empty or whitespace-only text.
	ErrEmptyMessage = errors.New("message text cannot be empty")
	// ErrMessageTooLong is returned when the text exceeds MaxMessageLength.
	ErrMessageTooLong = errors.New("message text exceeds maximum length")
	// ErrRoomInvalid is returned for a malformed room tag.
	ErrRoomInvalid = errors.New("invalid room tag")
)
