package db

import (
	"path/filepath"
	"testing"
)

func TestOpen_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tv-power.sqlite")

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer d.Close()

	var name string
	err = d.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'power_events'`).Scan(&name)
	if err != nil {
		t.Fatalf("power_events table missing: %v", err)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tv-power.sqlite")

	for i := 0; i < 2; i++ {
		d, err := Open(path)
		if err != nil {
			t.Fatalf("Open() #%d error = %v", i+1, err)
		}
		d.Close()
	}
}
