package protocol

import (
	"bytes"
	"testing"
)

func TestRegisterPayload(t *testing.T) {
	const addr = 0xF0F0F0F0D2
	p := EncodeRegister(addr)
	if len(p) != AddressSize {
		t.Fatalf("len = %d, want %d", len(p), AddressSize)
	}
	got, err := DecodeRegister(p)
	if err != nil || got != addr {
		t.Fatalf("DecodeRegister() = %#x, %v", got, err)
	}
	if _, err := DecodeRegister(p[:7]); err != ErrMalformedPacket {
		t.Fatalf("short register error = %v", err)
	}
}

func TestRegisterAckPayload(t *testing.T) {
	in := RegisterAck{ClientID: 7, PeerID: 0x1122334455667788}
	p := EncodeRegisterAck(in)
	if p[0] != 7 || p[1] != 0x88 || p[8] != 0x11 {
		t.Fatalf("unexpected layout %x", p)
	}
	out, err := DecodeRegisterAck(p)
	if err != nil || out != in {
		t.Fatalf("DecodeRegisterAck() = %+v, %v", out, err)
	}
	if _, err := DecodeRegisterAck(p[:8]); err != ErrMalformedAck {
		t.Fatalf("short ack error = %v, want ErrMalformedAck", err)
	}
}

func TestChannelDeclarationPayload(t *testing.T) {
	in := ChannelDeclaration{ChannelID: 3, Transform: 1, RoutingKey: "livingroom.lamp"}
	p, err := EncodeChannelDeclaration(in)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(p[:2], []byte{3, 1}) || string(p[2:]) != in.RoutingKey {
		t.Fatalf("unexpected layout %q", p)
	}
	out, err := DecodeChannelDeclaration(p)
	if err != nil || out != in {
		t.Fatalf("DecodeChannelDeclaration() = %+v, %v", out, err)
	}

	long := ChannelDeclaration{RoutingKey: string(bytes.Repeat([]byte{'k'}, MaxRoutingKeySize+1))}
	if _, err := EncodeChannelDeclaration(long); err != ErrInvalidPayload {
		t.Fatalf("long key error = %v, want ErrInvalidPayload", err)
	}
	if _, err := DecodeChannelDeclaration([]byte{1}); err != ErrMalformedPacket {
		t.Fatalf("short declaration error = %v", err)
	}
}

func TestPublishPayload(t *testing.T) {
	p, err := EncodePublish(2, []byte{0xAA, 0xBB})
	if err != nil {
		t.Fatal(err)
	}
	id, data, err := DecodePublish(p)
	if err != nil || id != 2 || !bytes.Equal(data, []byte{0xAA, 0xBB}) {
		t.Fatalf("DecodePublish() = %d %x %v", id, data, err)
	}
	if _, err := EncodePublish(0, make([]byte, MaxPublishDataSize+1)); err != ErrInvalidPayload {
		t.Fatalf("oversized publish error = %v", err)
	}
	if _, _, err := DecodePublish(nil); err != ErrMalformedPacket {
		t.Fatalf("empty publish error = %v", err)
	}
}
