package protocol

import "testing"

func registeredSession() *Session {
	s := NewSession()
	s.BeginRegistration(500)
	s.CompleteRegistration(RegisterAck{ClientID: 7, PeerID: 0x1122334455667788})
	return s
}

func TestSessionLifecycle(t *testing.T) {
	s := NewSession()
	if s.Registered() || s.State != StateUnregistered {
		t.Fatalf("new session state = %v", s.State)
	}

	s.BeginRegistration(0x1234)
	if s.State != StateRegistering || s.OutgoingCounter() != 0x1234 {
		t.Fatalf("after begin: state=%v counter=%#x", s.State, s.OutgoingCounter())
	}

	s.CompleteRegistration(RegisterAck{ClientID: 7, PeerID: 0x1122334455667788})
	if !s.Registered() || s.ClientID != 7 || s.PeerID != 0x1122334455667788 {
		t.Fatalf("after complete: %+v", s)
	}

	s.Advance()
	if s.OutgoingCounter() != 0x1235 {
		t.Fatalf("counter = %#x, want 0x1235", s.OutgoingCounter())
	}

	s.Invalidate()
	if s.Registered() {
		t.Fatal("session still registered after Invalidate")
	}
}

func TestSessionAccept(t *testing.T) {
	s := registeredSession()

	if !s.Accept(MessageRegisterAck, 100) {
		t.Fatal("register ack rejected")
	}
	if s.IncomingCounter() != 100 {
		t.Fatalf("incoming = %d, want 100", s.IncomingCounter())
	}
	if s.Accept(MessagePub, 100) {
		t.Fatal("duplicate accepted")
	}
	if s.Accept(MessagePub, 112) {
		t.Fatal("frame beyond window accepted")
	}
	if s.IncomingCounter() != 100 {
		t.Fatalf("rejected frame mutated incoming counter: %d", s.IncomingCounter())
	}
	if !s.Accept(MessagePub, 105) || s.IncomingCounter() != 105 {
		t.Fatalf("in-window frame: incoming = %d", s.IncomingCounter())
	}
	if s.Accept(MessagePub, 103) {
		t.Fatal("stale frame accepted")
	}
}

func TestSessionCheckLinkAck(t *testing.T) {
	tests := []struct {
		name        string
		ack         []byte
		invalidated bool
	}{
		{name: "matching peer", ack: EncodeLinkAck(0x1122334455667788)},
		{name: "other peer with valid checksum", ack: EncodeLinkAck(0x0102030405060708)},
		{
			name: "other peer with bad checksum",
			ack: func() []byte {
				a := EncodeLinkAck(0x0102030405060708)
				a[7] ^= 0xFF
				return a
			}(),
			invalidated: true,
		},
		{name: "short ack", ack: []byte{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := registeredSession()
			if got := s.CheckLinkAck(tt.ack); got != tt.invalidated {
				t.Fatalf("CheckLinkAck() = %v, want %v", got, tt.invalidated)
			}
			if s.Registered() == tt.invalidated {
				t.Fatalf("Registered() = %v after ack", s.Registered())
			}
		})
	}
}

func snapshot(s *Session) Session { return *s }

func TestSessionSnapshotAccessors(t *testing.T) {
	s := registeredSession()
	s.Accept(MessagePub, s.IncomingCounter()+1)
	s.Advance()

	if !snapshot(s).Registered() {
		t.Fatal("snapshot not registered")
	}
	if got := snapshot(s).OutgoingCounter(); got != s.OutgoingCounter() {
		t.Fatalf("snapshot outgoing = %d, want %d", got, s.OutgoingCounter())
	}
	if got := snapshot(s).IncomingCounter(); got != s.IncomingCounter() {
		t.Fatalf("snapshot incoming = %d, want %d", got, s.IncomingCounter())
	}
}
