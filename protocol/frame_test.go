package protocol

import (
	"bytes"
	"testing"
)

func TestFrameEncoding(t *testing.T) {
	tests := []struct {
		name  string
		frame *Frame
	}{
		{
			name: "empty payload",
			frame: &Frame{
				Counter:  0xCAFE,
				ClientID: 7,
				Type:     MessagePub,
				Payload:  []byte{},
			},
		},
		{
			name: "small payload",
			frame: &Frame{
				Counter:  0x0102,
				ClientID: 1,
				Type:     MessageSubChannel,
				Payload:  []byte{1, 2, 3, 4, 5},
			},
		},
		{
			name: "maximum payload",
			frame: &Frame{
				Counter:  0xFFFF,
				ClientID: 254,
				Type:     MessagePub,
				Payload:  bytes.Repeat([]byte{0xAA}, MaxPayloadSize),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := EncodeFrame(tt.frame)
			if err != nil {
				t.Fatalf("EncodeFrame() error = %v", err)
			}

			if encoded[0] != byte(tt.frame.Counter>>8) {
				t.Errorf("counter high = %#x, want %#x", encoded[0], byte(tt.frame.Counter>>8))
			}
			if encoded[FrameSize-1] != byte(tt.frame.Counter) {
				t.Errorf("counter low = %#x, want %#x", encoded[FrameSize-1], byte(tt.frame.Counter))
			}
			if encoded[1] != tt.frame.ClientID {
				t.Errorf("ClientID = %v, want %v", encoded[1], tt.frame.ClientID)
			}
			if MessageType(encoded[2]) != tt.frame.Type {
				t.Errorf("Type = %v, want %v", MessageType(encoded[2]), tt.frame.Type)
			}
			if int(encoded[3]) != len(tt.frame.Payload) {
				t.Errorf("PayloadLen = %v, want %v", encoded[3], len(tt.frame.Payload))
			}
			if !bytes.Equal(encoded[4:4+len(tt.frame.Payload)], tt.frame.Payload) {
				t.Errorf("payload mismatch")
			}
		})
	}
}

func TestFrameRoundTrip(t *testing.T) {
	for size := 0; size <= MaxPayloadSize; size++ {
		payload := make([]byte, size)
		for i := range payload {
			payload[i] = byte(i + 1)
		}
		in := &Frame{Counter: uint16(size) * 997, ClientID: byte(size), Type: MessagePub, Payload: payload}

		encoded, err := EncodeFrame(in)
		if err != nil {
			t.Fatalf("size %d: EncodeFrame() error = %v", size, err)
		}
		out := DecodeFrame(encoded[:])
		if out == nil {
			t.Fatalf("size %d: DecodeFrame() returned nil", size)
		}
		if out.Counter != in.Counter || out.ClientID != in.ClientID || out.Type != in.Type {
			t.Errorf("size %d: header = %+v, want %+v", size, out, in)
		}
		if !bytes.Equal(out.Payload, in.Payload) {
			t.Errorf("size %d: payload = %v, want %v", size, out.Payload, in.Payload)
		}
	}
}

func TestFramePaddingIsRandom(t *testing.T) {
	f := &Frame{Counter: 1, Type: MessagePub}
	a, err := EncodeFrame(f)
	if err != nil {
		t.Fatal(err)
	}
	b, err := EncodeFrame(f)
	if err != nil {
		t.Fatal(err)
	}
	// 27 random bytes colliding twice in a row is not a realistic outcome.
	if bytes.Equal(a[FrameHeaderSize:FrameSize-1], b[FrameHeaderSize:FrameSize-1]) {
		t.Fatal("padding identical across encodes, want random padding")
	}
	if bytes.Equal(a[FrameHeaderSize:FrameSize-1], make([]byte, MaxPayloadSize)) {
		t.Fatal("padding is all zero")
	}
}

func TestEncodeFrameRejectsOversizedPayload(t *testing.T) {
	_, err := EncodeFrame(&Frame{Type: MessagePub, Payload: make([]byte, MaxPayloadSize+1)})
	if err != ErrInvalidPayload {
		t.Fatalf("EncodeFrame() error = %v, want ErrInvalidPayload", err)
	}
	if _, err := EncodeFrame(nil); err != ErrInvalidPayload {
		t.Fatalf("EncodeFrame(nil) error = %v, want ErrInvalidPayload", err)
	}
}

func TestDecodeInvalidFrames(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "nil data", data: nil},
		{name: "too short", data: []byte{0x01, 0x02}},
		{name: "too long", data: make([]byte, FrameSize+1)},
		{
			name: "payload length beyond frame",
			data: func() []byte {
				d := make([]byte, FrameSize)
				d[3] = MaxPayloadSize + 1
				return d
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if decoded := DecodeFrame(tt.data); decoded != nil {
				t.Errorf("DecodeFrame() = %v, want nil for invalid frame", decoded)
			}
		})
	}
}

func TestMessageTypeString(t *testing.T) {
	if MessageRegisterAck.String() != "register_ack" {
		t.Errorf("String() = %q", MessageRegisterAck.String())
	}
	if MessageType(99).String() != "unknown" {
		t.Errorf("String() = %q", MessageType(99).String())
	}
}
