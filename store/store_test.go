package store

import (
	"path/filepath"
	"testing"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return map[string]Store{"sqlite": db, "memory": NewMemory()}
}

func TestOpenMemory(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		t.Fatal(err)
	}
}

func TestClientAssignments(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			c, err := s.ClientByAddress(0xF0F0F0F0D2)
			if err != nil || c != nil {
				t.Fatalf("ClientByAddress() on empty store = %+v, %v", c, err)
			}

			if err := s.PutClient(Client{ID: 1, Address: 0xF0F0F0F0D2}); err != nil {
				t.Fatal(err)
			}
			if err := s.PutClient(Client{ID: 2, Address: 0xFFFFFFFFFFFFFFFF}); err != nil {
				t.Fatal(err)
			}

			c, err = s.ClientByAddress(0xFFFFFFFFFFFFFFFF)
			if err != nil || c == nil || c.ID != 2 {
				t.Fatalf("ClientByAddress() = %+v, %v", c, err)
			}
			if c.RegisteredAt.IsZero() {
				t.Error("RegisteredAt not set")
			}

			// Moving an address to another id drops the old row
			if err := s.PutClient(Client{ID: 3, Address: 0xF0F0F0F0D2}); err != nil {
				t.Fatal(err)
			}
			all, err := s.Clients()
			if err != nil {
				t.Fatal(err)
			}
			if len(all) != 2 || all[0].ID != 2 || all[1].ID != 3 {
				t.Fatalf("Clients() = %+v", all)
			}
		})
	}
}

func TestAssignmentsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.PutClient(Client{ID: 9, Address: 0xABCDEF}); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	c, err := db.ClientByAddress(0xABCDEF)
	if err != nil || c == nil || c.ID != 9 {
		t.Fatalf("ClientByAddress() after reopen = %+v, %v", c, err)
	}
}
