package db_test

import (
	"path/filepath"
	"testing"
	"time"

	"warshipfetch/pkg/db"
)

func TestDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "db_test.db")

	d, err := db.Init(path)
	if err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if d == nil {
		t.Fatal("Init() returned nil DB")
	}
	defer d.Close()

	for _, table := range []string{"cache", "fetch_run", "warship"} {
		var n int
		if err := d.QueryRow("SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n); err != nil {
			t.Fatalf("query sqlite_master: %v", err)
		}
		if n != 1 {
			t.Errorf("table %s missing after migration", table)
		}
	}

	// Re-opening runs the idempotent migrations again
	d.Close()
	d2, err := db.Init(path)
	if err != nil {
		t.Fatalf("second Init() failed: %v", err)
	}
	d2.Close()
}

func TestPruneCache(t *testing.T) {
	d, err := db.Init(filepath.Join(t.TempDir(), "prune.db"))
	if err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	defer d.Close()

	now := time.Now().UTC()
	if _, err := d.Exec("INSERT INTO cache (key, value, created_at) VALUES (?, ?, ?)", "old", []byte("x"), now.Add(-48*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Exec("INSERT INTO cache (key, value, created_at) VALUES (?, ?, ?)", "fresh", []byte("y"), now); err != nil {
		t.Fatal(err)
	}

	n, err := d.PruneCache(24 * time.Hour)
	if err != nil {
		t.Fatalf("PruneCache() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("PruneCache() removed %d rows, want 1", n)
	}

	var left string
	if err := d.QueryRow("SELECT key FROM cache").Scan(&left); err != nil {
		t.Fatal(err)
	}
	if left != "fresh" {
		t.Errorf("remaining key = %q, want fresh", left)
	}
}
