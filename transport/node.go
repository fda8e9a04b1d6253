package transport

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ystepanoff/homelink/observability"
	proto "github.com/ystepanoff/homelink/protocol"
)

// Node is the protocol engine of one sensor/actuator node. It is not safe for
// concurrent use: every call runs to completion on the caller's goroutine and
// the counters assume strictly sequential sends and receives.
type Node struct {
	cfg      Config
	driver   RadioDriver
	cipher   *proto.Cipher
	session  *proto.Session
	channels *proto.Channels
	log      zerolog.Logger
}

func NewNodeWithDriver(cfg Config, key []byte, d RadioDriver, logger zerolog.Logger) (*Node, error) {
	c, err := proto.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("node cipher: %w", err)
	}
	if cfg.SendAttempts < 1 {
		cfg.SendAttempts = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Millisecond
	}
	return &Node{
		cfg:      cfg,
		driver:   d,
		cipher:   c,
		session:  proto.NewSession(),
		channels: proto.NewChannels(),
		log:      logger,
	}, nil
}

// Begin configures the radio: writes go to the gateway, pipe 1 listens on
// the node's own address.
func (n *Node) Begin() error {
	radio := n.cfg.Radio
	radio.WritingPipe = n.cfg.GatewayAddress
	radio.ReadingPipe = n.cfg.ListenAddress
	if err := radio.Validate(); err != nil {
		return err
	}
	if err := n.driver.Configure(radio); err != nil {
		return fmt.Errorf("configure radio: %w", err)
	}
	n.cfg.Radio = radio
	n.log.Debug().
		Uint8("channel", radio.Channel).
		Str("gateway", fmt.Sprintf("%#x", radio.WritingPipe)).
		Str("listen", fmt.Sprintf("%#x", radio.ReadingPipe)).
		Msg("radio configured")
	return nil
}

func (n *Node) SetChannel(ch uint8) error {
	if ch > 125 {
		return proto.ErrInvalidChannel
	}
	n.cfg.Radio.Channel = ch
	return n.Begin()
}

func (n *Node) IsRegistered() bool { return n.session.Registered() }

// Session returns a snapshot of the current session.
func (n *Node) Session() proto.Session { return *n.session }

// Register runs the handshake with the gateway. Every previously declared
// channel is forgotten on success; callers must declare them again.
func (n *Node) Register() error {
	n.session.BeginRegistration(proto.GenerateCounter())
	n.log.Info().Str("listen", fmt.Sprintf("%#x", n.cfg.ListenAddress)).Msg("registering")

	if err := n.register(); err != nil {
		n.session.Invalidate()
		observability.RecordRegistration("failed")
		n.log.Warn().Err(err).Msg("register failed")
		return err
	}

	observability.RecordRegistration("ok")
	n.log.Info().
		Uint8("client_id", n.session.ClientID).
		Str("server_id", fmt.Sprintf("%#x", n.session.PeerID)).
		Msg("register success")
	return nil
}

func (n *Node) register() error {
	if err := n.SendFrame(proto.MessageRegister, proto.EncodeRegister(n.cfg.ListenAddress)); err != nil {
		return err
	}
	frame, err := n.WaitForFrame(proto.MessageRegisterAck, n.cfg.HandshakeTimeout)
	if err != nil {
		return err
	}
	ack, err := proto.DecodeRegisterAck(frame.Payload)
	if err != nil {
		return err
	}
	n.channels.Reset()
	n.session.CompleteRegistration(ack)
	return nil
}

// SendFrame encrypts and transmits one frame, retrying up to SendAttempts
// link-layer attempts. The outgoing counter advances only when a transmission
// was acknowledged.
func (n *Node) SendFrame(t proto.MessageType, payload []byte) error {
	if !n.session.Registered() && t != proto.MessageRegister {
		return proto.ErrNotRegistered
	}

	frame := &proto.Frame{
		Counter:  n.session.OutgoingCounter(),
		ClientID: n.session.ClientID,
		Type:     t,
		Payload:  payload,
	}
	data, err := proto.EncodeFrame(frame)
	if err != nil {
		return err
	}
	n.log.Trace().Stringer("type", t).Hex("frame", data[:]).Msg("sending")
	n.cipher.Encrypt(&data)

	var txErr error
	attempt := 0
	for attempt < n.cfg.SendAttempts {
		attempt++
		if txErr = n.driver.Tx(data[:]); txErr == nil {
			break
		}
	}
	if txErr != nil {
		observability.RecordFailed(observability.RoleNode, t.String())
		n.log.Debug().Stringer("type", t).Int("attempts", attempt).Err(txErr).Msg("send failed")
		return fmt.Errorf("%w after %d attempts: %v", proto.ErrSendFailed, attempt, txErr)
	}

	if ack, ok := n.driver.AckPayload(); ok && t != proto.MessageRegister {
		if n.session.CheckLinkAck(ack) {
			observability.RecordSessionReset()
			n.log.Warn().
				Hex("ack", ack).
				Str("server_id", fmt.Sprintf("%#x", n.session.PeerID)).
				Msg("ack from unknown gateway failed checksum, unregistering")
		}
	}

	n.session.Advance()
	observability.RecordSent(observability.RoleNode, t.String())
	n.log.Trace().Stringer("type", t).Int("attempts", attempt).Msg("sent")
	return nil
}

// ReceiveFrame returns the next acceptable gateway frame, or nil when nothing
// is pending or the pending frame was rejected. It never blocks.
func (n *Node) ReceiveFrame() *proto.Frame {
	if !n.driver.Available() {
		return nil
	}
	raw, err := n.driver.Rx()
	if err != nil {
		return nil
	}
	if len(raw) != proto.FrameSize {
		n.drop(observability.DropMalformed, nil)
		return nil
	}

	var data [proto.FrameSize]byte
	copy(data[:], raw)
	n.cipher.Decrypt(&data)
	n.log.Trace().Hex("frame", data[:]).Msg("receiving")

	frame := proto.DecodeFrame(data[:])
	if frame == nil {
		n.drop(observability.DropMalformed, nil)
		return nil
	}
	if frame.ClientID != proto.GatewayClientID {
		n.drop(observability.DropCrossTalk, frame)
		return nil
	}
	if !n.session.Accept(frame.Type, frame.Counter) {
		n.drop(observability.DropReplay, frame)
		return nil
	}
	return frame
}

func (n *Node) drop(reason string, frame *proto.Frame) {
	observability.RecordDropped(observability.RoleNode, reason)
	ev := n.log.Debug().Str("reason", reason)
	if frame != nil {
		ev = ev.Stringer("type", frame.Type).
			Uint16("counter", frame.Counter).
			Uint16("expected_after", n.session.IncomingCounter()).
			Uint8("client_id", frame.ClientID)
	}
	ev.Msg("frame dropped")
}

// WaitForFrame polls for a frame of type t until timeout elapses. Frames of
// other types received meanwhile are discarded.
func (n *Node) WaitForFrame(t proto.MessageType, timeout time.Duration) (*proto.Frame, error) {
	deadline := time.Now().Add(timeout)
	for {
		if frame := n.ReceiveFrame(); frame != nil && frame.Type == t {
			return frame, nil
		}
		if !time.Now().Before(deadline) {
			n.log.Debug().Stringer("type", t).Dur("timeout", timeout).Msg("waiting failed")
			return nil, proto.ErrTimeout
		}
		time.Sleep(n.cfg.PollInterval)
	}
}

// Poll drains at most one inbound frame and dispatches it. It reports whether
// a frame was accepted.
func (n *Node) Poll() bool {
	frame := n.ReceiveFrame()
	if frame == nil {
		return false
	}
	if frame.Type == proto.MessagePub && !n.channels.Dispatch(frame.Payload) {
		n.drop(observability.DropUndeclared, frame)
	}
	return true
}

// DeclarePublish announces an outbound channel. The returned id is the one
// used for the declaration; it is only consumed when err is nil.
func (n *Node) DeclarePublish(routingKey string, transform uint8) (uint8, error) {
	id, err := n.channels.NextPublishID()
	if err != nil {
		return 0, err
	}
	if err := n.declare(proto.MessagePubChannel, id, routingKey, transform); err != nil {
		return id, err
	}
	n.channels.AddPublish(routingKey, transform)
	return id, nil
}

// DeclareSubscribe announces an inbound channel and binds h to it.
func (n *Node) DeclareSubscribe(routingKey string, transform uint8, h proto.Handler) (uint8, error) {
	id, err := n.channels.NextSubscribeID()
	if err != nil {
		return 0, err
	}
	if err := n.declare(proto.MessageSubChannel, id, routingKey, transform); err != nil {
		return id, err
	}
	n.channels.AddSubscribe(routingKey, transform, h)
	return id, nil
}

func (n *Node) declare(t proto.MessageType, id uint8, routingKey string, transform uint8) error {
	payload, err := proto.EncodeChannelDeclaration(proto.ChannelDeclaration{
		ChannelID:  id,
		Transform:  transform,
		RoutingKey: routingKey,
	})
	if err != nil {
		return err
	}
	if err := n.SendFrame(t, payload); err != nil {
		n.log.Info().Stringer("type", t).Str("routing_key", routingKey).Uint8("channel", id).Err(err).Msg("declaration failed")
		return err
	}
	n.log.Info().Stringer("type", t).Str("routing_key", routingKey).Uint8("channel", id).Msg("declared")
	return nil
}

// Publish sends data on a declared publish channel.
func (n *Node) Publish(channelID uint8, data []byte) error {
	payload, err := proto.EncodePublish(channelID, data)
	if err != nil {
		return err
	}
	return n.SendFrame(proto.MessagePub, payload)
}
