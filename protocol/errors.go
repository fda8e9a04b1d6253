package protocol

import "errors"

var (
	ErrInvalidPayload  = errors.New("protocol: invalid payload size")
	ErrInvalidKey      = errors.New("protocol: invalid key size")
	ErrNotRegistered   = errors.New("protocol: node not registered")
	ErrTimeout         = errors.New("protocol: operation timed out")
	ErrSendFailed      = errors.New("protocol: transmission not acknowledged")
	ErrMalformedAck    = errors.New("protocol: malformed registration ack")
	ErrChannelLimit    = errors.New("protocol: channel table full")
	ErrInvalidChannel  = errors.New("protocol: invalid radio channel (valid range: 0-125)")
	ErrMalformedPacket = errors.New("protocol: malformed payload")
)
