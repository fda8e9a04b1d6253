package transport

import (
	"time"

	proto "github.com/ystepanoff/homelink/protocol"
)

// Config defines node addressing and protocol timing.
type Config struct {
	GatewayAddress   uint64
	ListenAddress    uint64
	Radio            RadioConfig
	HandshakeTimeout time.Duration
	PollInterval     time.Duration
	SendAttempts     int
}

func DefaultConfig() Config {
	return Config{
		GatewayAddress:   0xF0F0F0F0E1,
		Radio:            DefaultRadioConfig(),
		HandshakeTimeout: proto.HandshakeTimeout * time.Millisecond,
		PollInterval:     time.Millisecond,
		SendAttempts:     proto.SendAttempts,
	}
}
