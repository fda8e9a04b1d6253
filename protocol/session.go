package protocol

// SessionState tracks where a node is in the registration handshake.
type SessionState uint8

const (
	StateUnregistered SessionState = iota
	StateRegistering
	StateRegistered
)

func (s SessionState) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StateRegistering:
		return "registering"
	case StateRegistered:
		return "registered"
	default:
		return "unknown"
	}
}

// Session holds the identity negotiated with the gateway and the two
// independent counters: the one this node stamps on outgoing frames and the
// last one it accepted from the gateway.
type Session struct {
	State    SessionState
	ClientID uint8
	PeerID   uint64

	outgoing uint16
	incoming uint16
}

// NewSession returns an unregistered session.
func NewSession() *Session { return &Session{} }

func (s Session) Registered() bool { return s.State == StateRegistered }

func (s Session) OutgoingCounter() uint16 { return s.outgoing }

func (s Session) IncomingCounter() uint16 { return s.incoming }

// BeginRegistration drops any previous identity and seeds the outgoing counter.
func (s *Session) BeginRegistration(counter uint16) {
	s.State = StateRegistering
	s.ClientID = 0
	s.PeerID = 0
	s.outgoing = counter
}

// CompleteRegistration adopts the identity assigned by the gateway.
func (s *Session) CompleteRegistration(ack RegisterAck) {
	s.ClientID = ack.ClientID
	s.PeerID = ack.PeerID
	s.State = StateRegistered
}

// Invalidate forces the session back to unregistered.
func (s *Session) Invalidate() { s.State = StateUnregistered }

// Advance consumes one outgoing counter value after a confirmed transmission.
func (s *Session) Advance() { s.outgoing++ }

// Accept applies the sequence guard to an inbound gateway frame and records
// its counter when it passes. REGISTER_ACK frames bypass the guard because
// the gateway counter is not yet known; accepting one synchronises it.
func (s *Session) Accept(t MessageType, counter uint16) bool {
	if t != MessageRegisterAck && !ValidateCounter(s.incoming, counter) {
		return false
	}
	s.incoming = counter
	return true
}

// CheckLinkAck inspects the piggybacked ack of a non-registration send and
// reports whether the session was invalidated. An ack naming another peer
// with a valid checksum is treated as stale and ignored.
func (s *Session) CheckLinkAck(payload []byte) bool {
	ack, ok := DecodeLinkAck(payload)
	if !ok || ack.Matches(s.PeerID) || ack.Valid() {
		return false
	}
	if s.State == StateRegistered {
		s.State = StateUnregistered
		return true
	}
	return false
}
