package gateway

import (
	"encoding/hex"
	"fmt"
)

// Transform converts between a channel's wire bytes and the structured
// message body exchanged with the rest of the system.
type Transform interface {
	ToMessage(payload []byte) (map[string]any, error)
	ToPayload(body map[string]any) ([]byte, error)
}

const (
	TransformRaw    uint8 = 0
	TransformSwitch uint8 = 1
)

var transforms = map[uint8]Transform{
	TransformRaw:    rawTransform{},
	TransformSwitch: switchTransform{},
}

func LookupTransform(id uint8) (Transform, error) {
	t, ok := transforms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTransform, id)
	}
	return t, nil
}

// rawTransform passes bytes through as a hex string under "data".
type rawTransform struct{}

func (rawTransform) ToMessage(payload []byte) (map[string]any, error) {
	return map[string]any{"data": hex.EncodeToString(payload)}, nil
}

func (rawTransform) ToPayload(body map[string]any) ([]byte, error) {
	s, ok := body["data"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: raw transform needs a hex string in \"data\"", ErrBadMessage)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	return b, nil
}

// switchTransform maps the first payload byte to an on/off "status".
type switchTransform struct{}

func (switchTransform) ToMessage(payload []byte) (map[string]any, error) {
	if len(payload) < 1 {
		return nil, fmt.Errorf("%w: switch payload is empty", ErrBadMessage)
	}
	return map[string]any{"status": payload[0] != 0}, nil
}

func (switchTransform) ToPayload(body map[string]any) ([]byte, error) {
	status, ok := body["status"].(bool)
	if !ok {
		return nil, fmt.Errorf("%w: switch transform needs a bool \"status\"", ErrBadMessage)
	}
	if status {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}
