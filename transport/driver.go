package transport

import (
	"errors"

	proto "github.com/ystepanoff/homelink/protocol"
)

var (
	ErrNoAck  = errors.New("transport: no link-layer ack")
	ErrNoData = errors.New("transport: no frame available")
)

// RadioDriver is the interface that wraps the basic radio operations.
//
// Tx performs exactly one link-layer attempt and returns nil only when the
// receiver acknowledged the frame. AckPayload reports the payload piggybacked
// on that acknowledgment, if any. Available and Rx never block.
type RadioDriver interface {
	Configure(cfg RadioConfig) error
	Tx(frame []byte) error
	AckPayload() ([]byte, bool)
	Available() bool
	Rx() ([]byte, error)
}

type DataRate uint8

const (
	DataRate250Kbps DataRate = iota
	DataRate1Mbps
	DataRate2Mbps
)

type PALevel uint8

const (
	PAMin PALevel = iota
	PALow
	PAHigh
	PAMax
)

// RadioConfig describes the link-layer settings applied by Begin.
type RadioConfig struct {
	Channel         uint8
	DataRate        DataRate
	PALevel         PALevel
	CRCLength       uint8 // bytes: 1 or 2
	RetryDelay      uint8 // hardware auto-retransmit delay, 250us steps
	RetryCount      uint8 // hardware auto-retransmit count
	AutoAck         bool
	DynamicPayloads bool
	AckPayloads     bool
	WritingPipe     uint64
	ReadingPipe     uint64
}

func DefaultRadioConfig() RadioConfig {
	return RadioConfig{
		Channel:         proto.DefaultChannel,
		DataRate:        DataRate250Kbps,
		PALevel:         PAHigh,
		CRCLength:       2,
		RetryDelay:      10,
		RetryCount:      10,
		AutoAck:         true,
		DynamicPayloads: true,
		AckPayloads:     true,
	}
}

func (c RadioConfig) Validate() error {
	if c.Channel > 125 {
		return proto.ErrInvalidChannel
	}
	if c.CRCLength != 1 && c.CRCLength != 2 {
		return errors.New("transport: crc length must be 1 or 2 bytes")
	}
	if c.RetryCount > 15 || c.RetryDelay > 15 {
		return errors.New("transport: retry delay and count must be in 0-15")
	}
	return nil
}
