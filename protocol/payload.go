package protocol

import "encoding/binary"

// Payload codecs for the message types. All multi-byte integers are
// little-endian.

// EncodeRegister returns the REGISTER payload: the node's listen address.
func EncodeRegister(address uint64) []byte {
	buf := make([]byte, AddressSize)
	binary.LittleEndian.PutUint64(buf, address)
	return buf
}

// DecodeRegister returns the listen address carried by a REGISTER payload.
func DecodeRegister(payload []byte) (uint64, error) {
	if len(payload) < AddressSize {
		return 0, ErrMalformedPacket
	}
	return binary.LittleEndian.Uint64(payload[:AddressSize]), nil
}

// RegisterAck is the body of a REGISTER_ACK frame.
type RegisterAck struct {
	ClientID uint8
	PeerID   uint64
}

func EncodeRegisterAck(ack RegisterAck) []byte {
	buf := make([]byte, RegisterAckSize)
	buf[0] = ack.ClientID
	binary.LittleEndian.PutUint64(buf[1:], ack.PeerID)
	return buf
}

func DecodeRegisterAck(payload []byte) (RegisterAck, error) {
	if len(payload) < RegisterAckSize {
		return RegisterAck{}, ErrMalformedAck
	}
	return RegisterAck{
		ClientID: payload[0],
		PeerID:   binary.LittleEndian.Uint64(payload[1:RegisterAckSize]),
	}, nil
}

// ChannelDeclaration is the body of PUB_CHANNEL and SUB_CHANNEL frames.
// The routing key is not length-prefixed; it runs to the end of the payload.
type ChannelDeclaration struct {
	ChannelID  uint8
	Transform  uint8
	RoutingKey string
}

func EncodeChannelDeclaration(d ChannelDeclaration) ([]byte, error) {
	if len(d.RoutingKey) > MaxRoutingKeySize {
		return nil, ErrInvalidPayload
	}
	buf := make([]byte, 2+len(d.RoutingKey))
	buf[0] = d.ChannelID
	buf[1] = d.Transform
	copy(buf[2:], d.RoutingKey)
	return buf, nil
}

func DecodeChannelDeclaration(payload []byte) (ChannelDeclaration, error) {
	if len(payload) < 2 {
		return ChannelDeclaration{}, ErrMalformedPacket
	}
	return ChannelDeclaration{
		ChannelID:  payload[0],
		Transform:  payload[1],
		RoutingKey: string(payload[2:]),
	}, nil
}

// EncodePublish returns channel_id | data.
func EncodePublish(channelID uint8, data []byte) ([]byte, error) {
	if len(data) > MaxPublishDataSize {
		return nil, ErrInvalidPayload
	}
	buf := make([]byte, 1+len(data))
	buf[0] = channelID
	copy(buf[1:], data)
	return buf, nil
}

// DecodePublish splits a PUB payload. The returned data aliases payload.
func DecodePublish(payload []byte) (uint8, []byte, error) {
	if len(payload) < 1 {
		return 0, nil, ErrMalformedPacket
	}
	return payload[0], payload[1:], nil
}
