// Package store persists the gateway's client id assignments so that a node
// keeps its id across gateway restarts.
package store

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Client is one address to client id assignment.
type Client struct {
	ID           uint8
	Address      uint64
	RegisteredAt time.Time
}

type Store interface {
	// ClientByAddress returns the assignment for address, or nil.
	ClientByAddress(address uint64) (*Client, error)
	// PutClient inserts or replaces the assignment for c.ID.
	PutClient(c Client) error
	Clients() ([]Client, error)
	Close() error
}

// DB is the sqlite-backed Store.
type DB struct {
	*sql.DB
}

// Open opens db at path, runs migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// :memory: databases are per connection
	db.SetMaxOpenConns(1)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS clients (
			client_id INTEGER PRIMARY KEY,
			address TEXT NOT NULL UNIQUE,
			registered_at TEXT NOT NULL
		);
	`)
	return err
}

func formatAddress(address uint64) string {
	return fmt.Sprintf("%016x", address)
}

func parseAddress(raw string) (uint64, error) {
	return strconv.ParseUint(raw, 16, 64)
}

func (db *DB) ClientByAddress(address uint64) (*Client, error) {
	var c Client
	var id int64
	var addr, t string
	err := db.QueryRow("SELECT client_id, address, registered_at FROM clients WHERE address = ?", formatAddress(address)).Scan(&id, &addr, &t)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.ID = uint8(id)
	if c.Address, err = parseAddress(addr); err != nil {
		return nil, fmt.Errorf("client %d: bad address %q: %w", id, addr, err)
	}
	c.RegisteredAt, _ = time.Parse(time.RFC3339, t)
	return &c, nil
}

// PutClient replaces any row holding the same id or address.
func (db *DB) PutClient(c Client) error {
	if c.RegisteredAt.IsZero() {
		c.RegisteredAt = time.Now()
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec("DELETE FROM clients WHERE client_id = ? OR address = ?", int64(c.ID), formatAddress(c.Address)); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO clients (client_id, address, registered_at) VALUES (?, ?, ?)",
		int64(c.ID), formatAddress(c.Address), c.RegisteredAt.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return tx.Commit()
}

func (db *DB) Clients() ([]Client, error) {
	rows, err := db.Query("SELECT client_id, address, registered_at FROM clients ORDER BY client_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Client
	for rows.Next() {
		var id int64
		var addr, t string
		if err := rows.Scan(&id, &addr, &t); err != nil {
			return nil, err
		}
		a, err := parseAddress(addr)
		if err != nil {
			return nil, fmt.Errorf("client %d: bad address %q: %w", id, addr, err)
		}
		ts, _ := time.Parse(time.RFC3339, t)
		out = append(out, Client{ID: uint8(id), Address: a, RegisteredAt: ts})
	}
	return out, rows.Err()
}

// Memory is a Store kept in process memory.
type Memory struct {
	mu      sync.Mutex
	clients map[uint8]Client
}

func NewMemory() *Memory {
	return &Memory{clients: make(map[uint8]Client)}
}

func (m *Memory) ClientByAddress(address uint64) (*Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clients {
		if c.Address == address {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (m *Memory) PutClient(c Client) error {
	if c.RegisteredAt.IsZero() {
		c.RegisteredAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.clients {
		if existing.Address == c.Address {
			delete(m.clients, id)
		}
	}
	m.clients[c.ID] = c
	return nil
}

func (m *Memory) Clients() ([]Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Client, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Close() error { return nil }

var (
	_ Store = (*DB)(nil)
	_ Store = (*Memory)(nil)
)
