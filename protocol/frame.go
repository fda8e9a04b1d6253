package protocol

// Frame is the plaintext view of one 32-byte radio frame.
// Layout: CounterHigh(1) | ClientID(1) | Type(1) | PayloadLen(1) | Payload(0-27) | Padding | CounterLow(1)
// The 16-bit counter is split across the first and last byte so that both
// cipher blocks depend on it.
type Frame struct {
	Counter  uint16
	ClientID uint8
	Type     MessageType
	Payload  []byte
}

// EncodeFrame serialises a Frame into a fixed-size plaintext buffer. Bytes
// between the end of the payload and the counter byte are random, never zero.
func EncodeFrame(f *Frame) ([FrameSize]byte, error) {
	var data [FrameSize]byte
	if f == nil {
		return data, ErrInvalidPayload
	}
	if len(f.Payload) > MaxPayloadSize {
		return data, ErrInvalidPayload
	}

	data[offsetCounterHigh] = byte(f.Counter >> 8)
	data[offsetClientID] = f.ClientID
	data[offsetType] = byte(f.Type)
	data[offsetPayloadLen] = byte(len(f.Payload))

	end := offsetPayload + copy(data[offsetPayload:offsetCounterLow], f.Payload)
	fillRandom(data[end:offsetCounterLow])

	data[offsetCounterLow] = byte(f.Counter)

	return data, nil
}

// DecodeFrame extracts the fields of a plaintext frame. It performs no
// counter or identity checks; it returns nil only when data cannot be a frame.
func DecodeFrame(data []byte) *Frame {
	if len(data) != FrameSize {
		return nil
	}

	payloadLen := int(data[offsetPayloadLen])
	if payloadLen > MaxPayloadSize {
		return nil
	}

	f := &Frame{
		Counter:  uint16(data[offsetCounterHigh])<<8 | uint16(data[offsetCounterLow]),
		ClientID: data[offsetClientID],
		Type:     MessageType(data[offsetType]),
		Payload:  make([]byte, payloadLen),
	}
	copy(f.Payload, data[offsetPayload:offsetPayload+payloadLen])

	return f
}
