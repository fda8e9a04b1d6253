//go:build !tinygo && !baremetal

package stub

import (
	"bytes"
	"testing"

	"github.com/ystepanoff/homelink/transport"
)

func TestDriverScriptedTx(t *testing.T) {
	d := New()
	d.ScriptTx(false, true)

	if err := d.Tx([]byte{1}); err != transport.ErrNoAck {
		t.Fatalf("first Tx() error = %v, want ErrNoAck", err)
	}
	if err := d.Tx([]byte{2}); err != nil {
		t.Fatalf("second Tx() error = %v", err)
	}
	if err := d.Tx([]byte{3}); err != nil {
		t.Fatalf("unscripted Tx() error = %v", err)
	}

	log := d.GetTxLog()
	if len(log) != 2 || log[0][0] != 2 || log[1][0] != 3 {
		t.Fatalf("tx log = %v", log)
	}
}

func TestDriverRxQueue(t *testing.T) {
	d := New()
	if d.Available() {
		t.Fatal("Available() = true on empty driver")
	}
	if _, err := d.Rx(); err != transport.ErrNoData {
		t.Fatalf("Rx() error = %v, want ErrNoData", err)
	}

	d.InjectRx([]byte{1, 2})
	d.InjectRx([]byte{3})
	first, _ := d.Rx()
	second, _ := d.Rx()
	if !bytes.Equal(first, []byte{1, 2}) || !bytes.Equal(second, []byte{3}) {
		t.Fatalf("Rx order = %v, %v", first, second)
	}
}

func TestRingBufferOverwritesOldest(t *testing.T) {
	var rb ringBuffer
	for i := 0; i < ringCapacity+3; i++ {
		rb.push([]byte{byte(i)})
	}
	frame, ok := rb.pop()
	if !ok || frame[0] != 3 {
		t.Fatalf("pop() = %v, %v; want oldest surviving frame 3", frame, ok)
	}
}

func TestConfigureValidates(t *testing.T) {
	d := New()
	cfg := transport.DefaultRadioConfig()
	cfg.Channel = 200
	if err := d.Configure(cfg); err == nil {
		t.Fatal("Configure() accepted channel 200")
	}
}

func TestAirRoutesFrames(t *testing.T) {
	air := NewAir()
	node := air.Attach(0xD2)

	var uplinked []byte
	air.SetGateway(func(frame []byte) []byte {
		uplinked = frame
		return []byte{9, 9, 9, 9, 9, 9, 9, 9}
	})

	if err := node.Tx([]byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(uplinked, []byte{1, 2, 3}) {
		t.Fatalf("gateway got %v", uplinked)
	}
	ack, ok := node.AckPayload()
	if !ok || ack[0] != 9 {
		t.Fatalf("AckPayload() = %v, %v", ack, ok)
	}

	if err := air.Send(0xD2, make([]byte, 32)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if !node.Available() {
		t.Fatal("frame not delivered to node")
	}
	if err := air.Send(0xEE, make([]byte, 32)); err != transport.ErrNoAck {
		t.Fatalf("Send() to unknown address error = %v", err)
	}
}

func TestFixedAckPayload(t *testing.T) {
	d := New()
	d.SetAckPayload([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	d.ScriptTx(false)

	if err := d.Tx([]byte{0}); err == nil {
		t.Fatal("scripted failure acknowledged")
	}
	if _, ok := d.AckPayload(); ok {
		t.Fatal("ack payload reported after failed Tx")
	}
	if err := d.Tx([]byte{0}); err != nil {
		t.Fatal(err)
	}
	if ack, ok := d.AckPayload(); !ok || ack[7] != 8 {
		t.Fatalf("AckPayload() = %v, %v", ack, ok)
	}
}
