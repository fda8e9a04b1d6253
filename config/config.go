// Package config loads node and gateway settings from TOML files.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/crypto/hkdf"

	"github.com/ystepanoff/homelink/gateway"
	"github.com/ystepanoff/homelink/logging"
	proto "github.com/ystepanoff/homelink/protocol"
	"github.com/ystepanoff/homelink/transport"
)

const keyInfo = "homelink frame key v1"

type Config struct {
	Key      []byte
	Node     transport.Config
	ServerID uint64
	Database string
	Log      logging.Config
}

type fileConfig struct {
	Key        string      `toml:"key"`
	Passphrase string      `toml:"passphrase"`
	LogLevel   string      `toml:"log_level"`
	LogJSON    bool        `toml:"log_json"`
	Node       nodeFile    `toml:"node"`
	Radio      radioFile   `toml:"radio"`
	Gateway    gatewayFile `toml:"gateway"`
}

type nodeFile struct {
	ListenAddress    string `toml:"listen_address"`
	GatewayAddress   string `toml:"gateway_address"`
	HandshakeTimeout string `toml:"handshake_timeout"`
	PollInterval     string `toml:"poll_interval"`
	SendAttempts     int    `toml:"send_attempts"`
}

type radioFile struct {
	Channel    int    `toml:"channel"`
	DataRate   string `toml:"data_rate"`
	PALevel    string `toml:"pa_level"`
	CRCLength  int    `toml:"crc_length"`
	RetryDelay int    `toml:"retry_delay"`
	RetryCount int    `toml:"retry_count"`
}

type gatewayFile struct {
	ServerID string `toml:"server_id"`
	Database string `toml:"database"`
}

func Default() Config {
	return Config{
		Node:     transport.DefaultConfig(),
		Database: "homelink.db",
		Log:      logging.DefaultConfig(),
	}
}

// Load reads path on top of Default. Only keys present in the file override
// defaults.
func Load(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return fromFile(raw, meta)
}

// Decode is Load for an already opened file.
func Decode(r io.Reader) (Config, error) {
	var raw fileConfig
	meta, err := toml.NewDecoder(r).Decode(&raw)
	if err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return fromFile(raw, meta)
}

func fromFile(raw fileConfig, meta toml.MetaData) (Config, error) {
	cfg := Default()

	switch {
	case meta.IsDefined("key") && meta.IsDefined("passphrase"):
		return Config{}, errors.New("config: set either key or passphrase, not both")
	case meta.IsDefined("key"):
		key, err := ParseKey(raw.Key)
		if err != nil {
			return Config{}, err
		}
		cfg.Key = key
	case meta.IsDefined("passphrase"):
		key, err := DeriveKey(raw.Passphrase)
		if err != nil {
			return Config{}, err
		}
		cfg.Key = key
	}

	if meta.IsDefined("log_level") {
		lvl, ok := logging.ParseLevel(raw.LogLevel)
		if !ok {
			return Config{}, fmt.Errorf("config: unknown log_level %q", raw.LogLevel)
		}
		cfg.Log.Level = lvl
	}
	if meta.IsDefined("log_json") {
		cfg.Log.JSON = raw.LogJSON
	}

	if err := applyNode(&cfg.Node, raw.Node, meta); err != nil {
		return Config{}, err
	}
	if err := applyRadio(&cfg.Node.Radio, raw.Radio, meta); err != nil {
		return Config{}, err
	}

	if meta.IsDefined("gateway", "server_id") {
		id, err := ParseAddress(raw.Gateway.ServerID)
		if err != nil {
			return Config{}, fmt.Errorf("parse gateway.server_id: %w", err)
		}
		cfg.ServerID = id
	}
	if meta.IsDefined("gateway", "database") {
		cfg.Database = strings.TrimSpace(raw.Gateway.Database)
	}

	return cfg, nil
}

func applyNode(cfg *transport.Config, raw nodeFile, meta toml.MetaData) error {
	if meta.IsDefined("node", "listen_address") {
		a, err := ParseAddress(raw.ListenAddress)
		if err != nil {
			return fmt.Errorf("parse node.listen_address: %w", err)
		}
		cfg.ListenAddress = a
	}
	if meta.IsDefined("node", "gateway_address") {
		a, err := ParseAddress(raw.GatewayAddress)
		if err != nil {
			return fmt.Errorf("parse node.gateway_address: %w", err)
		}
		cfg.GatewayAddress = a
	}
	if meta.IsDefined("node", "handshake_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.HandshakeTimeout))
		if err != nil {
			return fmt.Errorf("parse node.handshake_timeout: %w", err)
		}
		cfg.HandshakeTimeout = d
	}
	if meta.IsDefined("node", "poll_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.PollInterval))
		if err != nil {
			return fmt.Errorf("parse node.poll_interval: %w", err)
		}
		cfg.PollInterval = d
	}
	if meta.IsDefined("node", "send_attempts") {
		cfg.SendAttempts = raw.SendAttempts
	}
	return nil
}

func applyRadio(cfg *transport.RadioConfig, raw radioFile, meta toml.MetaData) error {
	if meta.IsDefined("radio", "channel") {
		if raw.Channel < 0 || raw.Channel > 125 {
			return proto.ErrInvalidChannel
		}
		cfg.Channel = uint8(raw.Channel)
	}
	if meta.IsDefined("radio", "data_rate") {
		switch strings.ToLower(strings.TrimSpace(raw.DataRate)) {
		case "250k", "250kbps":
			cfg.DataRate = transport.DataRate250Kbps
		case "1m", "1mbps":
			cfg.DataRate = transport.DataRate1Mbps
		case "2m", "2mbps":
			cfg.DataRate = transport.DataRate2Mbps
		default:
			return fmt.Errorf("config: unknown radio.data_rate %q", raw.DataRate)
		}
	}
	if meta.IsDefined("radio", "pa_level") {
		switch strings.ToLower(strings.TrimSpace(raw.PALevel)) {
		case "min":
			cfg.PALevel = transport.PAMin
		case "low":
			cfg.PALevel = transport.PALow
		case "high":
			cfg.PALevel = transport.PAHigh
		case "max":
			cfg.PALevel = transport.PAMax
		default:
			return fmt.Errorf("config: unknown radio.pa_level %q", raw.PALevel)
		}
	}
	for _, f := range []struct {
		key string
		val int
		dst *uint8
	}{
		{"crc_length", raw.CRCLength, &cfg.CRCLength},
		{"retry_delay", raw.RetryDelay, &cfg.RetryDelay},
		{"retry_count", raw.RetryCount, &cfg.RetryCount},
	} {
		if !meta.IsDefined("radio", f.key) {
			continue
		}
		if f.val < 0 || f.val > 0xFF {
			return fmt.Errorf("config: radio.%s out of range: %d", f.key, f.val)
		}
		*f.dst = uint8(f.val)
	}
	return nil
}

// ParseAddress accepts a pipe address in hex, with or without 0x.
func ParseAddress(raw string) (uint64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0, errors.New("empty address")
	}
	return strconv.ParseUint(s, 16, 64)
}

// ParseKey decodes a 16-byte frame key written as 32 hex characters.
func ParseKey(raw string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("config: parse key: %w", err)
	}
	if len(key) != proto.BlockSize {
		return nil, fmt.Errorf("config: key must be %d bytes, got %d", proto.BlockSize, len(key))
	}
	return key, nil
}

// DeriveKey stretches a shared passphrase into a frame key with HKDF-SHA256.
func DeriveKey(passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, errors.New("config: empty passphrase")
	}
	key := make([]byte, proto.BlockSize)
	r := hkdf.New(sha256.New, []byte(passphrase), nil, []byte(keyInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("config: derive key: %w", err)
	}
	return key, nil
}

func (c Config) Validate() error {
	if len(c.Key) != proto.BlockSize {
		return errors.New("config: key or passphrase is required")
	}
	if err := c.Node.Radio.Validate(); err != nil {
		return err
	}
	if c.Node.GatewayAddress == 0 {
		return errors.New("config: node.gateway_address is required")
	}
	if c.Node.ListenAddress == c.Node.GatewayAddress {
		return errors.New("config: node.listen_address must differ from node.gateway_address")
	}
	if c.Node.HandshakeTimeout <= 0 {
		return errors.New("config: node.handshake_timeout must be positive")
	}
	if c.Node.SendAttempts < 1 {
		return errors.New("config: node.send_attempts must be at least 1")
	}
	if c.ServerID>>56 != 0 {
		return errors.New("config: gateway.server_id must fit in 7 bytes")
	}
	return nil
}

func (c Config) Gateway() gateway.Config {
	return gateway.Config{Key: c.Key, ServerID: c.ServerID}
}
