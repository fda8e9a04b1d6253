package protocol

// Generic radio & protocol constants (platform independent). All higher layers should depend on this file.
const (
	// Frame sizing
	// Layout (after decryption):
	//   CounterHigh (1) | ClientID (1) | Type (1) | PayloadLen (1) | Payload (0-27) | Padding | CounterLow (1)
	// Every frame on air is exactly FrameSize bytes; unused payload bytes carry random padding.

	// Sizes of individual components
	FrameSize       = 32
	FrameHeaderSize = 4
	CounterLowSize  = 1

	// Application-level payload allowance
	MaxPayloadSize = FrameSize - FrameHeaderSize - CounterLowSize // 27 bytes

	// Field offsets inside a plaintext frame
	offsetCounterHigh = 0
	offsetClientID    = 1
	offsetType        = 2
	offsetPayloadLen  = 3
	offsetPayload     = FrameHeaderSize
	offsetCounterLow  = FrameSize - CounterLowSize

	// Cipher block size; a frame is exactly two blocks.
	BlockSize = 16

	// Sequence guard forward window
	CounterWindow = 11

	// Client id carried by every gateway-originated frame
	GatewayClientID = 0

	// Payload sizes of the registration exchange
	AddressSize         = 8
	RegisterAckSize     = 1 + 8 // client id + peer id
	LinkAckSize         = 8
	linkAckIdentitySize = LinkAckSize - 1

	// Channel payloads: channel_id(1) | transform_id(1) | routing key
	MaxRoutingKeySize  = MaxPayloadSize - 2
	MaxPublishDataSize = MaxPayloadSize - 1
	MaxChannels        = 256

	// Timeouts / intervals (milliseconds)
	HandshakeTimeout = 500
	SendAttempts     = 10

	// RF defaults (can be overridden per node)
	DefaultChannel = 0x4c
)

// MessageType identifies the purpose of a frame.
type MessageType uint8

const (
	MessageRegister    MessageType = 0
	MessageRegisterAck MessageType = 1
	MessagePubChannel  MessageType = 2
	MessageSubChannel  MessageType = 3
	MessagePub         MessageType = 4
)

func (t MessageType) String() string {
	switch t {
	case MessageRegister:
		return "register"
	case MessageRegisterAck:
		return "register_ack"
	case MessagePubChannel:
		return "pub_channel"
	case MessageSubChannel:
		return "sub_channel"
	case MessagePub:
		return "pub"
	default:
		return "unknown"
	}
}
