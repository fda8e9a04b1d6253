// Package gateway implements the central end of the radio protocol: it
// registers nodes, tracks their channel declarations and routes publishes
// between nodes and the host application.
package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ystepanoff/homelink/observability"
	proto "github.com/ystepanoff/homelink/protocol"
	"github.com/ystepanoff/homelink/store"
)

var (
	ErrUnknownClient     = errors.New("gateway: unknown client id")
	ErrReplay            = errors.New("gateway: counter outside window")
	ErrUndeclaredChannel = errors.New("gateway: channel not declared")
	ErrNoClientIDs       = errors.New("gateway: no free client ids")
	ErrUnknownTransform  = errors.New("gateway: unknown transform")
	ErrBadMessage        = errors.New("gateway: message does not fit transform")
	ErrUnexpectedType    = errors.New("gateway: unexpected message type")
)

const (
	firstClientID = 1
	lastClientID  = 254
)

// Sender transmits an encrypted frame to the node listening on address.
type Sender interface {
	Send(address uint64, frame []byte) error
}

// Router receives every publish sent by a node.
type Router interface {
	Route(msg Message)
}

type RouterFunc func(Message)

func (f RouterFunc) Route(msg Message) { f(msg) }

// Message is a node publish after transform decoding.
type Message struct {
	ClientID   uint8          `json:"client_id"`
	ChannelID  uint8          `json:"channel_id"`
	RoutingKey string         `json:"routing_key"`
	Transform  uint8          `json:"transform"`
	Payload    []byte         `json:"-"`
	Body       map[string]any `json:"body"`
}

func (m Message) JSON() ([]byte, error) { return json.Marshal(m) }

type Config struct {
	Key      []byte
	ServerID uint64 // 0 picks a random id
}

type client struct {
	id        uint8
	address   uint64
	incoming  uint16
	outgoing  uint16
	publish   map[uint8]proto.ChannelDeclaration
	subscribe map[uint8]proto.ChannelDeclaration
}

// ClientInfo is a read-only view of a registered node.
type ClientInfo struct {
	ID        uint8
	Address   uint64
	Publish   []proto.ChannelDeclaration
	Subscribe []proto.ChannelDeclaration
}

type Gateway struct {
	mu       sync.Mutex
	cipher   *proto.Cipher
	serverID uint64
	clients  map[uint8]*client
	store    store.Store
	sender   Sender
	router   Router
	log      zerolog.Logger
}

func New(cfg Config, sender Sender, router Router, st store.Store, logger zerolog.Logger) (*Gateway, error) {
	c, err := proto.NewCipher(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("gateway cipher: %w", err)
	}
	if st == nil {
		st = store.NewMemory()
	}
	serverID := cfg.ServerID
	if serverID == 0 {
		serverID = randomServerID()
	}
	return &Gateway{
		cipher:   c,
		serverID: serverID,
		clients:  make(map[uint8]*client),
		store:    st,
		sender:   sender,
		router:   router,
		log:      logger,
	}, nil
}

// randomServerID returns an id with seven significant bytes, the part a
// link-layer ack can carry.
func randomServerID() uint64 {
	var id uint64
	for id == 0 {
		id = uint64(proto.GenerateCounter()) | uint64(proto.GenerateCounter())<<16 |
			uint64(proto.GenerateCounter())<<32 | uint64(proto.GenerateCounter()&0xFF)<<48
	}
	return id
}

func (g *Gateway) ServerID() uint64 { return g.serverID }

// AckPayload is piggybacked on every hardware acknowledgment.
func (g *Gateway) AckPayload() []byte { return proto.EncodeLinkAck(g.serverID) }

// Uplink handles a frame and returns the ack payload; it fits stub.Uplink.
func (g *Gateway) Uplink(frame []byte) []byte {
	if err := g.HandleFrame(frame); err != nil {
		g.log.Debug().Err(err).Msg("frame rejected")
	}
	return g.AckPayload()
}

// HandleFrame decrypts and processes one frame received from a node.
func (g *Gateway) HandleFrame(raw []byte) error {
	if len(raw) != proto.FrameSize {
		observability.RecordDropped(observability.RoleGateway, observability.DropMalformed)
		return proto.ErrMalformedPacket
	}
	var data [proto.FrameSize]byte
	copy(data[:], raw)
	g.cipher.Decrypt(&data)
	frame := proto.DecodeFrame(data[:])
	if frame == nil {
		observability.RecordDropped(observability.RoleGateway, observability.DropMalformed)
		return proto.ErrMalformedPacket
	}
	g.log.Trace().Hex("frame", data[:]).Stringer("type", frame.Type).Msg("receiving")

	msg, err := g.process(frame)
	if err != nil {
		return err
	}
	// The router may call Deliver, so it runs without g.mu held.
	if msg != nil && g.router != nil {
		g.router.Route(*msg)
	}
	return nil
}

// process applies frame to the client table and returns the message to
// route, if any.
func (g *Gateway) process(frame *proto.Frame) (*Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if frame.Type == proto.MessageRegister {
		return nil, g.register(frame)
	}

	c, ok := g.clients[frame.ClientID]
	if !ok {
		observability.RecordDropped(observability.RoleGateway, observability.DropUnknown)
		return nil, fmt.Errorf("%w: %d", ErrUnknownClient, frame.ClientID)
	}
	if !proto.ValidateCounter(c.incoming, frame.Counter) {
		observability.RecordDropped(observability.RoleGateway, observability.DropReplay)
		return nil, fmt.Errorf("%w: client %d counter %d after %d", ErrReplay, c.id, frame.Counter, c.incoming)
	}
	c.incoming = frame.Counter

	switch frame.Type {
	case proto.MessagePubChannel, proto.MessageSubChannel:
		decl, err := proto.DecodeChannelDeclaration(frame.Payload)
		if err != nil {
			return nil, err
		}
		if frame.Type == proto.MessagePubChannel {
			c.publish[decl.ChannelID] = decl
		} else {
			c.subscribe[decl.ChannelID] = decl
		}
		g.log.Info().
			Uint8("client_id", c.id).
			Stringer("type", frame.Type).
			Uint8("channel", decl.ChannelID).
			Str("routing_key", decl.RoutingKey).
			Msg("channel declared")
		return nil, nil
	case proto.MessagePub:
		return g.message(c, frame.Payload)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedType, frame.Type)
	}
}

func (g *Gateway) register(frame *proto.Frame) error {
	address, err := proto.DecodeRegister(frame.Payload)
	if err != nil {
		return err
	}
	id, err := g.assignClientID(address)
	if err != nil {
		return err
	}

	c := &client{
		id:        id,
		address:   address,
		incoming:  frame.Counter,
		outgoing:  proto.GenerateCounter(),
		publish:   make(map[uint8]proto.ChannelDeclaration),
		subscribe: make(map[uint8]proto.ChannelDeclaration),
	}
	g.clients[id] = c
	g.log.Info().Uint8("client_id", id).Str("address", fmt.Sprintf("%#x", address)).Msg("register")

	return g.send(c, proto.MessageRegisterAck, proto.EncodeRegisterAck(proto.RegisterAck{
		ClientID: id,
		PeerID:   g.serverID,
	}))
}

// assignClientID reuses the id stored for address or takes the lowest free one.
func (g *Gateway) assignClientID(address uint64) (uint8, error) {
	existing, err := g.store.ClientByAddress(address)
	if err != nil {
		return 0, fmt.Errorf("lookup client: %w", err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	all, err := g.store.Clients()
	if err != nil {
		return 0, fmt.Errorf("list clients: %w", err)
	}
	used := make(map[uint8]bool, len(all))
	for _, c := range all {
		used[c.ID] = true
	}
	for id := firstClientID; id <= lastClientID; id++ {
		if used[uint8(id)] {
			continue
		}
		if err := g.store.PutClient(store.Client{ID: uint8(id), Address: address}); err != nil {
			return 0, fmt.Errorf("store client: %w", err)
		}
		return uint8(id), nil
	}
	return 0, ErrNoClientIDs
}

func (g *Gateway) message(c *client, payload []byte) (*Message, error) {
	channelID, data, err := proto.DecodePublish(payload)
	if err != nil {
		return nil, err
	}
	decl, ok := c.publish[channelID]
	if !ok {
		observability.RecordDropped(observability.RoleGateway, observability.DropUndeclared)
		return nil, fmt.Errorf("%w: client %d channel %d", ErrUndeclaredChannel, c.id, channelID)
	}
	t, err := LookupTransform(decl.Transform)
	if err != nil {
		return nil, err
	}
	body, err := t.ToMessage(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		ClientID:   c.id,
		ChannelID:  channelID,
		RoutingKey: decl.RoutingKey,
		Transform:  decl.Transform,
		Payload:    append([]byte(nil), data...),
		Body:       body,
	}, nil
}

// Deliver publishes body to every node channel subscribed to routingKey and
// returns how many frames were sent.
func (g *Gateway) Deliver(routingKey string, body map[string]any) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ids := make([]int, 0, len(g.clients))
	for id := range g.clients {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	var errs []error
	delivered := 0
	for _, id := range ids {
		c := g.clients[uint8(id)]
		for _, decl := range sortedDeclarations(c.subscribe) {
			if decl.RoutingKey != routingKey {
				continue
			}
			if err := g.deliver(c, decl, body); err != nil {
				errs = append(errs, fmt.Errorf("client %d channel %d: %w", c.id, decl.ChannelID, err))
				continue
			}
			delivered++
		}
	}
	return delivered, errors.Join(errs...)
}

func (g *Gateway) deliver(c *client, decl proto.ChannelDeclaration, body map[string]any) error {
	t, err := LookupTransform(decl.Transform)
	if err != nil {
		return err
	}
	data, err := t.ToPayload(body)
	if err != nil {
		return err
	}
	payload, err := proto.EncodePublish(decl.ChannelID, data)
	if err != nil {
		return err
	}
	return g.send(c, proto.MessagePub, payload)
}

// send encrypts a gateway frame for c; the client's counter advances only
// when the transmission succeeded.
func (g *Gateway) send(c *client, t proto.MessageType, payload []byte) error {
	data, err := proto.EncodeFrame(&proto.Frame{
		Counter:  c.outgoing,
		ClientID: proto.GatewayClientID,
		Type:     t,
		Payload:  payload,
	})
	if err != nil {
		return err
	}
	g.cipher.Encrypt(&data)
	if g.sender == nil {
		return proto.ErrSendFailed
	}
	if err := g.sender.Send(c.address, data[:]); err != nil {
		observability.RecordFailed(observability.RoleGateway, t.String())
		g.log.Warn().Uint8("client_id", c.id).Stringer("type", t).Err(err).Msg("failed sending packet")
		return err
	}
	c.outgoing++
	observability.RecordSent(observability.RoleGateway, t.String())
	return nil
}

// Client returns the state of a registered node.
func (g *Gateway) Client(id uint8) (ClientInfo, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.clients[id]
	if !ok {
		return ClientInfo{}, false
	}
	return ClientInfo{
		ID:        c.id,
		Address:   c.address,
		Publish:   sortedDeclarations(c.publish),
		Subscribe: sortedDeclarations(c.subscribe),
	}, true
}

func sortedDeclarations(m map[uint8]proto.ChannelDeclaration) []proto.ChannelDeclaration {
	out := make([]proto.ChannelDeclaration, 0, len(m))
	for _, d := range m {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChannelID < out[j].ChannelID })
	return out
}
