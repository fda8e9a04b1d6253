// Package homelink provides a façade to access the radio protocol layer.
package homelink

import (
	"github.com/rs/zerolog"

	"github.com/ystepanoff/homelink/gateway"
	"github.com/ystepanoff/homelink/protocol"
	"github.com/ystepanoff/homelink/transport"
)

// Host constructors backed by the in-memory radio live in constructors_host.go.

// Re-export types for convenience
type (
	Node          = transport.Node
	Config        = transport.Config
	RadioConfig   = transport.RadioConfig
	RadioDriver   = transport.RadioDriver
	Frame         = protocol.Frame
	MessageType   = protocol.MessageType
	Session       = protocol.Session
	Handler       = protocol.Handler
	Gateway       = gateway.Gateway
	Message       = gateway.Message
	Router        = gateway.Router
	RouterFunc    = gateway.RouterFunc
	GatewayConfig = gateway.Config
)

// Error constants exposed in the public API
var (
	ErrInvalidPayload = protocol.ErrInvalidPayload
	ErrInvalidKey     = protocol.ErrInvalidKey
	ErrNotRegistered  = protocol.ErrNotRegistered
	ErrTimeout        = protocol.ErrTimeout
	ErrSendFailed     = protocol.ErrSendFailed
	ErrMalformedAck   = protocol.ErrMalformedAck
	ErrChannelLimit   = protocol.ErrChannelLimit
	ErrInvalidChannel = protocol.ErrInvalidChannel
)

// Constants exposed in the public API
const (
	MessageRegister    = protocol.MessageRegister
	MessageRegisterAck = protocol.MessageRegisterAck
	MessagePubChannel  = protocol.MessagePubChannel
	MessageSubChannel  = protocol.MessageSubChannel
	MessagePub         = protocol.MessagePub

	TransformRaw    = gateway.TransformRaw
	TransformSwitch = gateway.TransformSwitch
)

func DefaultConfig() Config { return transport.DefaultConfig() }

// NewNodeWithDriver builds a node on top of any radio driver. Pass
// zerolog.Nop() to silence it.
func NewNodeWithDriver(cfg Config, key []byte, d RadioDriver, log zerolog.Logger) (*Node, error) {
	return transport.NewNodeWithDriver(cfg, key, d, log)
}
