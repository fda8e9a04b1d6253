//go:build !tinygo && !baremetal

// This file is built only for non-embedded targets (host-based testing).
package homelink

import (
	"github.com/rs/zerolog"

	"github.com/ystepanoff/homelink/driver/stub"
	"github.com/ystepanoff/homelink/gateway"
	"github.com/ystepanoff/homelink/store"
	"github.com/ystepanoff/homelink/transport"
)

// NewNode returns a node on a standalone stub radio that acks every frame.
func NewNode(cfg Config, key []byte, log zerolog.Logger) (*Node, error) {
	return transport.NewNodeWithDriver(cfg, key, stub.New(), log)
}

// Network is an in-memory radio medium with a gateway listening on it.
type Network struct {
	Air     *stub.Air
	Gateway *gateway.Gateway
	log     zerolog.Logger
}

func NewNetwork(cfg GatewayConfig, router Router, st store.Store, log zerolog.Logger) (*Network, error) {
	air := stub.NewAir()
	gw, err := gateway.New(cfg, air, router, st, log.With().Str("role", "gateway").Logger())
	if err != nil {
		return nil, err
	}
	air.SetGateway(gw.Uplink)
	return &Network{Air: air, Gateway: gw, log: log}, nil
}

// Join attaches a node listening on cfg.ListenAddress. The node still has to
// Begin and Register.
func (n *Network) Join(cfg Config, key []byte) (*Node, error) {
	d := n.Air.Attach(cfg.ListenAddress)
	return transport.NewNodeWithDriver(cfg, key, d, n.log.With().Str("role", "node").Uint64("listen", cfg.ListenAddress).Logger())
}
