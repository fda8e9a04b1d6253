//go:build !tinygo && !baremetal

package stub

import (
	"sync"

	proto "github.com/ystepanoff/homelink/protocol"
	"github.com/ystepanoff/homelink/transport"
)

// Uplink receives a frame transmitted by a node and returns the ack payload
// the receiving end piggybacks on its hardware acknowledgment (nil for none).
type Uplink func(frame []byte) []byte

// Driver implements a mock radio driver for host-side testing
type Driver struct {
	mu     sync.Mutex
	radio  transport.RadioConfig
	rxBuf  ringBuffer
	txBuf  ringBuffer
	script []bool
	fixed  []byte
	ack    []byte // payload of the last acknowledged Tx, nil for none
	uplink Uplink
}

func New() *Driver { return &Driver{} }

func (d *Driver) Configure(cfg transport.RadioConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.radio = cfg
	return nil
}

// Radio returns the configuration applied by the last Configure call.
func (d *Driver) Radio() transport.RadioConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.radio
}

// Tx consumes one scripted outcome if any are queued; otherwise every attempt
// is acknowledged. Acknowledged frames are logged and forwarded to the uplink.
func (d *Driver) Tx(data []byte) error {
	frame := make([]byte, len(data))
	copy(frame, data)

	d.mu.Lock()
	if len(d.script) > 0 {
		ok := d.script[0]
		d.script = d.script[1:]
		if !ok {
			d.ack = nil
			d.mu.Unlock()
			return transport.ErrNoAck
		}
	}
	d.txBuf.push(frame)
	uplink := d.uplink
	if uplink == nil {
		d.ack = d.fixed
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	// The uplink may inject replies into this driver, so it runs unlocked.
	ack := uplink(frame)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.ack = ack
	return nil
}

func (d *Driver) AckPayload() ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ack == nil {
		return nil, false
	}
	out := make([]byte, len(d.ack))
	copy(out, d.ack)
	return out, true
}

func (d *Driver) Available() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rxBuf.count > 0
}

func (d *Driver) Rx() ([]byte, error) {
	d.mu.Lock()
	frame, ok := d.rxBuf.pop()
	d.mu.Unlock()
	if !ok {
		return nil, transport.ErrNoData
	}
	return frame, nil
}

func (d *Driver) InjectRx(data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	frame := make([]byte, len(data))
	copy(frame, data)
	d.rxBuf.push(frame)
}

func (d *Driver) GetTxLog() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.txBuf.snapshot()
}

// ScriptTx queues link-layer outcomes for the next Tx calls.
func (d *Driver) ScriptTx(results ...bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.script = append(d.script, results...)
}

// SetAckPayload fixes the ack payload reported after every acknowledged Tx
// when no uplink is attached.
func (d *Driver) SetAckPayload(ack []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ack == nil {
		d.fixed = nil
		return
	}
	d.fixed = append([]byte(nil), ack...)
}

func (d *Driver) SetUplink(u Uplink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.uplink = u
}

const ringCapacity = 64

type ringBuffer struct {
	data       [ringCapacity][]byte
	head, tail int // head = next pop, tail = next push
	count      int
}

func (rb *ringBuffer) push(frame []byte) {
	if rb.count == ringCapacity {
		// Overwrite the oldest when buffer is full to keep memory bounded
		rb.data[rb.tail] = nil
		rb.head = (rb.head + 1) % ringCapacity
		rb.count--
	}
	rb.data[rb.tail] = frame
	rb.tail = (rb.tail + 1) % ringCapacity
	rb.count++
}

func (rb *ringBuffer) pop() ([]byte, bool) {
	if rb.count == 0 {
		return nil, false
	}
	frame := rb.data[rb.head]
	rb.data[rb.head] = nil
	rb.head = (rb.head + 1) % ringCapacity
	rb.count--
	return frame, true
}

func (rb *ringBuffer) snapshot() [][]byte {
	out := make([][]byte, rb.count)
	idx := 0
	i := rb.head
	for c := 0; c < rb.count; c++ {
		p := rb.data[i]
		cp := make([]byte, len(p))
		copy(cp, p)
		out[idx] = cp
		idx++
		i = (i + 1) % ringCapacity
	}
	return out
}

var _ transport.RadioDriver = (*Driver)(nil)

// Air is an in-memory radio medium: node drivers attached to it deliver their
// frames to a single gateway, and the gateway reaches nodes by address.
type Air struct {
	mu      sync.Mutex
	nodes   map[uint64]*Driver
	gateway Uplink
}

func NewAir() *Air {
	return &Air{nodes: make(map[uint64]*Driver)}
}

// Attach returns a driver listening on address.
func (a *Air) Attach(address uint64) *Driver {
	d := New()
	d.SetUplink(a.uplink)
	a.mu.Lock()
	a.nodes[address] = d
	a.mu.Unlock()
	return d
}

// SetGateway installs the handler that receives every node transmission.
func (a *Air) SetGateway(u Uplink) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gateway = u
}

func (a *Air) uplink(frame []byte) []byte {
	a.mu.Lock()
	gw := a.gateway
	a.mu.Unlock()
	if gw == nil {
		return nil
	}
	return gw(frame)
}

// Send delivers a frame to the node listening on address.
func (a *Air) Send(address uint64, frame []byte) error {
	a.mu.Lock()
	d, ok := a.nodes[address]
	a.mu.Unlock()
	if !ok {
		return transport.ErrNoAck
	}
	if len(frame) != proto.FrameSize {
		return proto.ErrInvalidPayload
	}
	d.InjectRx(frame)
	return nil
}
